package domain

import "strings"

// MaxListItems caps every list-type rich block. Larger result sets are
// truncated and get a "view more" affordance instead of pagination.
const MaxListItems = 3

// BlockType tags a rich-content block variant.
type BlockType string

const (
	BlockInfoCard    BlockType = "info_card"
	BlockProductList BlockType = "product_list"
	BlockAccordion   BlockType = "accordion"
	BlockButtonList  BlockType = "button_list"
	BlockChipList    BlockType = "chip_list"
)

// Block is one rich-content block. Exactly one of the variant fields is
// set, matching Type. Serialization to the outbound channel format lives
// with the channel, not here.
type Block struct {
	Type     BlockType
	Info     *InfoCard
	Products []ProductCard
	Sections []AccordionSection
	Buttons  []Button
	Chips    []string
}

// InfoCard is a single title/subtitle card with an optional image.
type InfoCard struct {
	Title    string
	Subtitle string
	ImageURL string
}

// ProductCard is one entry in a product carousel.
type ProductCard struct {
	Title    string
	Subtitle string
	ImageURL string
	LinkURL  string
}

// AccordionSection is one collapsible section of an accordion block.
type AccordionSection struct {
	Title string
	Text  string
}

// Button is one entry in a button list.
type Button struct {
	Text string
	URL  string
}

// Reply accumulates a handler's response: ordered text fragments, rich
// blocks, and quick-reply suggestions. Handlers mutate it; the channel
// serializes it exactly once after the handler returns.
type Reply struct {
	fragments   []string
	blocks      []Block
	suggestions []string
}

// Say appends a text fragment.
func (r *Reply) Say(text string) {
	if text == "" {
		return
	}
	r.fragments = append(r.fragments, text)
}

// AddBlock appends a rich-content block, truncating list payloads to
// MaxListItems.
func (r *Reply) AddBlock(b Block) {
	if len(b.Products) > MaxListItems {
		b.Products = b.Products[:MaxListItems]
	}
	if len(b.Buttons) > MaxListItems {
		b.Buttons = b.Buttons[:MaxListItems]
	}
	if len(b.Sections) > MaxListItems {
		b.Sections = b.Sections[:MaxListItems]
	}
	r.blocks = append(r.blocks, b)
}

// Suggest appends quick-reply options, skipping duplicates.
func (r *Reply) Suggest(options ...string) {
	for _, opt := range options {
		dup := false
		for _, existing := range r.suggestions {
			if strings.EqualFold(existing, opt) {
				dup = true
				break
			}
		}
		if !dup {
			r.suggestions = append(r.suggestions, opt)
		}
	}
}

// Fragments returns the ordered text fragments.
func (r *Reply) Fragments() []string { return r.fragments }

// Blocks returns the rich-content blocks in insertion order.
func (r *Reply) Blocks() []Block { return r.blocks }

// Suggestions returns the accumulated quick-reply options.
func (r *Reply) Suggestions() []string { return r.suggestions }

// Empty reports whether the reply carries no text and no rich content.
// Quick replies alone do not count: a chips-only response renders as an
// empty bubble on most channels.
func (r *Reply) Empty() bool {
	return len(r.fragments) == 0 && len(r.blocks) == 0
}
