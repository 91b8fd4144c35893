package handler

import (
	"context"
	"fmt"
	"strings"

	"shopbot/internal/domain"
)

func (d *Dispatcher) handleShippingInfo(_ context.Context, _ domain.IntentEvent, reply *domain.Reply) error {
	reply.Say(d.replies.Text("shipping_policy"))
	reply.AddBlock(domain.Block{
		Type: domain.BlockAccordion,
		Sections: []domain.AccordionSection{
			{Title: "Standard shipping", Text: "3-5 business days. Free on orders over $50, otherwise $4.90."},
			{Title: "Express delivery", Text: "1-2 business days, $9.90 flat fee."},
			{Title: "Returns", Text: "Free returns within 30 days of delivery."},
		},
	})
	reply.Suggest("Track my order", "Browse products")
	return nil
}

func (d *Dispatcher) handleRecommend(ctx context.Context, _ domain.IntentEvent, reply *domain.Reply) error {
	products, err := d.catalog.TopRatedProducts(ctx, domain.MaxListItems)
	if err != nil {
		return fmt.Errorf("top rated products: %w", err)
	}
	if len(products) == 0 {
		reply.Say(d.replies.Text("product_not_found"))
		return nil
	}
	reply.Say(d.replies.Text("recommend_intro"))
	reply.AddBlock(productCarousel(products))
	reply.Suggest("Add to cart", "Show promotions")
	return nil
}

func (d *Dispatcher) handlePromotionList(ctx context.Context, _ domain.IntentEvent, reply *domain.Reply) error {
	promos, err := d.catalog.ActivePromotions(ctx)
	if err != nil {
		return fmt.Errorf("active promotions: %w", err)
	}
	if len(promos) == 0 {
		reply.Say(d.replies.Text("promo_none"))
		reply.Suggest(d.replies.Suggestions("default")...)
		return nil
	}

	reply.Say(d.replies.Text("promo_intro"))
	sections := make([]domain.AccordionSection, 0, len(promos))
	for _, p := range promos {
		text := p.Description
		if !p.ValidUntil.IsZero() {
			text += " Valid until " + p.ValidUntil.Format("Jan 2") + "."
		}
		sections = append(sections, domain.AccordionSection{Title: p.Title, Text: text})
	}
	reply.AddBlock(domain.Block{Type: domain.BlockAccordion, Sections: sections})
	reply.Suggest("Check a coupon", "Browse products")
	return nil
}

func (d *Dispatcher) handleCouponCheck(ctx context.Context, evt domain.IntentEvent, reply *domain.Reply) error {
	code := strings.ToUpper(strings.TrimSpace(evt.Parameters.String("coupon_code")))
	if code == "" {
		reply.Say("Which coupon code should I check?")
		return nil
	}

	res, err := d.catalog.ValidateCoupon(ctx, code)
	if err != nil {
		return fmt.Errorf("validate coupon %s: %w", code, err)
	}
	if res.Valid {
		reply.Say(d.replies.Text("coupon_valid", res.Code, res.Discount))
		reply.Suggest("Browse products", "View cart")
		return nil
	}

	reply.Say(d.replies.Text("coupon_invalid", code, joinList(res.Alternatives)))
	reply.Suggest(res.Alternatives...)
	return nil
}

func (d *Dispatcher) handleStoreLocator(ctx context.Context, evt domain.IntentEvent, reply *domain.Reply) error {
	city := strings.TrimSpace(evt.Parameters.String("city"))
	stores, err := d.catalog.StoresByCity(ctx, city, domain.MaxListItems)
	if err != nil {
		return fmt.Errorf("stores by city: %w", err)
	}
	if len(stores) == 0 {
		if city == "" {
			city = "your area"
		}
		reply.Say(d.replies.Text("store_none", city))
		reply.Suggest("Browse products")
		return nil
	}

	reply.Say(d.replies.Text("store_intro"))
	buttons := make([]domain.Button, 0, len(stores))
	for _, s := range stores {
		reply.Say(fmt.Sprintf("%s — %s, %s. Open %s. Call %s.", s.Name, s.Address, s.City, s.Hours, s.Phone))
		if s.MapURL != "" {
			buttons = append(buttons, domain.Button{Text: "Map: " + s.Name, URL: s.MapURL})
		}
	}
	if len(buttons) > 0 {
		reply.AddBlock(domain.Block{Type: domain.BlockButtonList, Buttons: buttons})
	}
	return nil
}

func (d *Dispatcher) handleContactPhone(ctx context.Context, evt domain.IntentEvent, reply *domain.Reply) error {
	phone := strings.TrimSpace(evt.Parameters.String("phone_number"))
	if phone == "" {
		if n, ok := evt.Parameters.Number("phone_number"); ok {
			phone = fmt.Sprintf("%.0f", n)
		}
	}
	if phone == "" {
		reply.Say(d.replies.Text("contact_missing"))
		return nil
	}
	if err := d.catalog.SetContact(ctx, domain.Contact{SessionID: evt.SessionID, Phone: phone}); err != nil {
		return fmt.Errorf("set contact: %w", err)
	}
	reply.Say(d.replies.Text("contact_phone_saved", phone))
	reply.Suggest(d.replies.Suggestions("default")...)
	return nil
}

func (d *Dispatcher) handleContactEmail(ctx context.Context, evt domain.IntentEvent, reply *domain.Reply) error {
	email := strings.TrimSpace(evt.Parameters.String("email"))
	if email == "" {
		reply.Say(d.replies.Text("contact_missing"))
		return nil
	}
	if err := d.catalog.SetContact(ctx, domain.Contact{SessionID: evt.SessionID, Email: email}); err != nil {
		return fmt.Errorf("set contact: %w", err)
	}
	reply.Say(d.replies.Text("contact_email_saved", email))
	reply.Suggest(d.replies.Suggestions("default")...)
	return nil
}
