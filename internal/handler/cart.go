package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shopbot/internal/domain"
	"shopbot/internal/store"
)

func (d *Dispatcher) handleCartView(ctx context.Context, evt domain.IntentEvent, reply *domain.Reply) error {
	items, err := d.catalog.GetCart(ctx, evt.SessionID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}
	if len(items) == 0 {
		reply.Say(d.replies.Text("cart_empty"))
		reply.Suggest(d.replies.Suggestions("default")...)
		return nil
	}
	d.sayCart(reply, items)
	reply.Suggest(d.replies.Suggestions("cart")...)
	return nil
}

func (d *Dispatcher) handleCartAdd(ctx context.Context, evt domain.IntentEvent, reply *domain.Reply) error {
	names := evt.Parameters.StringList("product")
	if len(names) == 0 {
		reply.Say(d.replies.Text("cart_unknown_item"))
		reply.Suggest("Browse products")
		return nil
	}
	qty := evt.Parameters.Int("quantity", 1)
	if qty < 1 {
		qty = 1
	}

	var added, unknown []string
	for _, name := range names {
		p, err := d.catalog.GetProductByName(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			unknown = append(unknown, name)
			continue
		}
		if err != nil {
			return fmt.Errorf("get product %q: %w", name, err)
		}
		item := domain.CartItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  qty,
			Color:     p.Color,
			Size:      p.Size,
			ImageURL:  p.ImageURL,
		}
		if err := d.catalog.AddToCart(ctx, evt.SessionID, item); err != nil {
			return fmt.Errorf("add to cart: %w", err)
		}
		added = append(added, fmt.Sprintf("%dx %s", qty, p.Name))
	}

	if len(added) > 0 {
		reply.Say("Added " + joinList(added) + " to your cart.")
	}
	if len(unknown) > 0 {
		reply.Say(d.replies.Text("cart_unknown_item") + " (" + joinList(unknown) + ")")
	}

	// Totals always come from a fresh fetch after the mutation.
	items, err := d.catalog.GetCart(ctx, evt.SessionID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}
	if len(items) > 0 {
		d.sayCart(reply, items)
	}
	reply.Suggest(d.replies.Suggestions("cart")...)
	return nil
}

func (d *Dispatcher) handleCartRemove(ctx context.Context, evt domain.IntentEvent, reply *domain.Reply) error {
	names := evt.Parameters.StringList("product")
	if len(names) == 0 {
		reply.Say(d.replies.Text("cart_unknown_item"))
		reply.Suggest("View cart")
		return nil
	}
	qty := evt.Parameters.Int("quantity", 0) // 0 removes the whole line

	var removed, missing []string
	for _, name := range names {
		p, err := d.catalog.GetProductByName(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			missing = append(missing, name)
			continue
		}
		if err != nil {
			return fmt.Errorf("get product %q: %w", name, err)
		}
		err = d.catalog.RemoveFromCart(ctx, evt.SessionID, p.ID, qty)
		if errors.Is(err, store.ErrNotFound) {
			missing = append(missing, name)
			continue
		}
		if err != nil {
			return fmt.Errorf("remove from cart: %w", err)
		}
		removed = append(removed, p.Name)
	}

	if len(removed) > 0 {
		reply.Say("Removed " + joinList(removed) + " from your cart.")
	}
	if len(missing) > 0 {
		reply.Say("Your cart doesn't have " + joinList(missing) + ".")
	}

	items, err := d.catalog.GetCart(ctx, evt.SessionID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}
	if len(items) == 0 {
		reply.Say(d.replies.Text("cart_empty"))
		reply.Suggest(d.replies.Suggestions("default")...)
		return nil
	}
	d.sayCart(reply, items)
	reply.Suggest(d.replies.Suggestions("cart")...)
	return nil
}

// sayCart renders the cart contents and the freshly computed total.
func (d *Dispatcher) sayCart(reply *domain.Reply, items []domain.CartItem) {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("%dx %s ($%.2f)", it.Quantity, it.Name, it.Price))
	}
	reply.Say(fmt.Sprintf("Your cart: %s. Total: $%.2f.", strings.Join(lines, ", "), domain.CartTotal(items)))
}

// joinList formats names as "a, b and c".
func joinList(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
