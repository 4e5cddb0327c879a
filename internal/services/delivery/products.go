package delivery

// products is the simulated grocery price table, keyed by normalized item name
var products = map[string]float64{
	"spaghetti":       2.99,
	"eggs":            3.49,
	"pecorino cheese": 6.99,
	"guanciale":       8.99,
	"black pepper":    3.99,
	"salt":            1.99,
	"chicken breast":  7.99,
	"onion":           0.99,
	"garlic":          1.49,
	"ginger":          2.49,
	"curry powder":    4.99,
	"coconut milk":    2.99,
	"tomatoes":        2.49,
	"rice":            3.99,
}

// Price looks up an item's price
func Price(item string) (float64, bool) {
	price, ok := products[normalize(item)]
	return price, ok
}
