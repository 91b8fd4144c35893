package handler

import (
	"context"
	"errors"
	"fmt"

	"shopbot/internal/domain"
	"shopbot/internal/store"
)

const shopBaseURL = "https://shop.example.com"

func productLink(id string) string { return shopBaseURL + "/p/" + id }

func (d *Dispatcher) handleProductSearch(ctx context.Context, evt domain.IntentEvent, reply *domain.Reply) error {
	filter := domain.ProductFilter{
		Query:    evt.Parameters.String("product"),
		Category: evt.Parameters.String("category"),
		Color:    evt.Parameters.String("color"),
	}
	if price, ok := evt.Parameters.Number("max_price"); ok {
		filter.MaxPrice = price
	}
	// Fetch one past the display cap to know whether a view-more link is
	// needed.
	filter.Limit = domain.MaxListItems + 1

	products, err := d.catalog.SearchProducts(ctx, filter)
	if err != nil {
		return fmt.Errorf("search products: %w", err)
	}

	if len(products) == 0 {
		reply.Say(d.replies.Text("product_not_found"))
		top, err := d.catalog.TopRatedProducts(ctx, domain.MaxListItems)
		if err != nil {
			return fmt.Errorf("top rated products: %w", err)
		}
		reply.AddBlock(productCarousel(top))
		reply.Suggest(d.replies.Suggestions("default")...)
		return nil
	}

	truncated := len(products) > domain.MaxListItems
	reply.Say(d.replies.Text("product_search_intro"))
	reply.AddBlock(productCarousel(products))
	if truncated {
		reply.AddBlock(domain.Block{
			Type:    domain.BlockButtonList,
			Buttons: []domain.Button{{Text: "View more results", URL: shopBaseURL + "/search?q=" + filter.Query}},
		})
	}
	reply.Suggest("Add to cart", "View cart")
	return nil
}

func (d *Dispatcher) handleProductDetails(ctx context.Context, evt domain.IntentEvent, reply *domain.Reply) error {
	name := evt.Parameters.String("product")
	if name == "" {
		reply.Say(d.replies.Text("product_not_found"))
		reply.Suggest(d.replies.Suggestions("default")...)
		return nil
	}

	p, err := d.catalog.GetProductByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		reply.Say(d.replies.Text("product_not_found"))
		top, err := d.catalog.TopRatedProducts(ctx, domain.MaxListItems)
		if err != nil {
			return fmt.Errorf("top rated products: %w", err)
		}
		reply.AddBlock(productCarousel(top))
		return nil
	}
	if err != nil {
		return fmt.Errorf("get product %q: %w", name, err)
	}

	subtitle := fmt.Sprintf("$%.2f · %s", p.Price, availability(p.Stock))
	reply.Say(fmt.Sprintf("%s — $%.2f. Rated %.1f stars.", p.Name, p.Price, p.Rating))
	reply.AddBlock(domain.Block{
		Type: domain.BlockInfoCard,
		Info: &domain.InfoCard{Title: p.Name, Subtitle: subtitle, ImageURL: p.ImageURL},
	})
	reply.Suggest("Add to cart", "Browse products")
	return nil
}

func availability(stock int) string {
	switch {
	case stock == 0:
		return "out of stock"
	case stock < 10:
		return "only a few left"
	default:
		return "in stock"
	}
}

func productCarousel(products []domain.Product) domain.Block {
	cards := make([]domain.ProductCard, 0, len(products))
	for _, p := range products {
		cards = append(cards, domain.ProductCard{
			Title:    p.Name,
			Subtitle: fmt.Sprintf("$%.2f", p.Price),
			ImageURL: p.ImageURL,
			LinkURL:  productLink(p.ID),
		})
	}
	return domain.Block{Type: domain.BlockProductList, Products: cards}
}
