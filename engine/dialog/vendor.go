package dialog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/warriorcore/types"
)

// vendor shows a buy or sell menu and binds ITEM and COST to the pick.
// The transaction itself is left to the script that follows. ok is false
// when the player cancelled or there was nothing to trade.
func (e *Evaluator) vendor(ctx context.Context, sell bool, opts *types.DialogVendorOptions) (bool, error) {
	items := e.vendorItems(opts)
	if sell {
		items = e.sellableItems(items)
	}
	if len(items) == 0 {
		e.Logger.Debug("vendor has nothing to trade", "sell", sell)
		return false, nil
	}

	labels := make([]string, len(items))
	prices := make([]int, len(items))
	for i, item := range items {
		price, _ := e.Defs.ItemPrice(item)
		if sell {
			price /= 2
		}
		prices[i] = price
		labels[i] = fmt.Sprintf("%s (%d GP)", item, price)
	}

	choice, err := e.UI.Choose(ctx, "", labels)
	if err != nil {
		return false, err
	}
	if choice < 0 || choice >= len(items) {
		return false, nil
	}
	e.SetVariable("ITEM", items[choice])
	e.SetVariable("COST", strconv.Itoa(prices[choice]))
	return true, nil
}

// vendorItems returns the literal item list, or the comma separated list
// stored in the named variable.
func (e *Evaluator) vendorItems(opts *types.DialogVendorOptions) []string {
	if opts == nil {
		return nil
	}
	if opts.Variable == "" {
		return opts.Items
	}
	value, ok := e.Variable(opts.Variable)
	if !ok {
		e.Logger.Error("vendor variable not defined", "variable", opts.Variable)
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// sellableItems narrows offered to the unequipped items the hero carries.
// An empty offer list means the vendor buys anything with a price.
func (e *Evaluator) sellableItems(offered []string) []string {
	h := e.hero()
	if h == nil {
		return nil
	}
	accepts := map[string]bool{}
	for _, item := range offered {
		accepts[item] = true
	}

	var result []string
	for _, row := range h.ItemRowData() {
		if len(offered) > 0 && !accepts[row.Name] {
			continue
		}
		if e.Defs.IsItem(row.Name) {
			result = append(result, row.Name)
		}
	}
	return result
}
