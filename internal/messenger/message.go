package messenger

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message is a feed template accepted by the provider's send API.
type Message struct {
	ObjectType  string      `json:"object_type"`
	Content     Content     `json:"content"`
	ItemContent ItemContent `json:"item_content"`
	Buttons     []Button    `json:"buttons"`
}

// Content is the header block of a feed message.
type Content struct {
	Title       string `json:"title"`
	ImageURL    string `json:"image_url,omitempty"`
	ImageWidth  int    `json:"image_width,omitempty"`
	ImageHeight int    `json:"image_height,omitempty"`
	Link        Link   `json:"link"`
}

// Link is a tappable target.
type Link struct {
	WebURL       string `json:"web_url"`
	MobileWebURL string `json:"mobile_web_url"`
}

// ItemContent lists labelled rows and a sum.
type ItemContent struct {
	ProfileText string    `json:"profile_text"`
	Items       []ItemRow `json:"items"`
	Sum         string    `json:"sum"`
	SumOp       string    `json:"sum_op"`
}

// ItemRow is one labelled row.
type ItemRow struct {
	Item   string `json:"item"`
	ItemOp string `json:"item_op"`
}

// Button is a call to action.
type Button struct {
	Title string `json:"title"`
	Link  Link   `json:"link"`
}

// LineItem is an expense or item that contributed to the requested amount.
type LineItem struct {
	Description string
	Amount      int64
}

// Templates renders payment request messages.
type Templates struct {
	printer  *message.Printer
	currency string
	imageURL string
}

// NewTemplates creates a renderer that formats amounts for locale and
// appends currency (e.g. "원").
func NewTemplates(locale, currency, imageURL string) (*Templates, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid message locale %q: %w", locale, err)
	}
	return &Templates{
		printer:  message.NewPrinter(tag),
		currency: currency,
		imageURL: imageURL,
	}, nil
}

// FormatAmount renders amount with locale thousands separators.
func (t *Templates) FormatAmount(amount int64) string {
	return t.printer.Sprintf("%d", amount) + t.currency
}

// BuildPaymentRequestMessage renders the payment request: a group row, one
// row per contributing line item, the requested total and a pay button.
func (t *Templates) BuildPaymentRequestMessage(link, groupName string, items []LineItem, total int64) *Message {
	rows := make([]ItemRow, 0, len(items)+1)
	rows = append(rows, ItemRow{Item: "Group", ItemOp: groupName})
	for _, item := range items {
		rows = append(rows, ItemRow{Item: item.Description, ItemOp: t.FormatAmount(item.Amount)})
	}

	target := Link{WebURL: link, MobileWebURL: link}
	msg := &Message{
		ObjectType: "feed",
		Content: Content{
			Title: "💸 Payment request",
			Link:  target,
		},
		ItemContent: ItemContent{
			ProfileText: "Settlement",
			Items:       rows,
			Sum:         "Total due",
			SumOp:       t.FormatAmount(total),
		},
		Buttons: []Button{{Title: "Send money", Link: target}},
	}
	if t.imageURL != "" {
		msg.Content.ImageURL = t.imageURL
		msg.Content.ImageWidth = 640
		msg.Content.ImageHeight = 640
	}
	return msg
}
