// Package catalog suggests a default tag for an item name, so the frontend
// can pre-fill a category when a user adds something it recognizes. Tag
// texts stay within the eight-character limit.
package catalog

import "strings"

// Suggest returns a suggested tag text for the given item name, or "" when
// the name is not recognized. Matching is case-insensitive: exact match
// first, then substring match.
func Suggest(itemName string) string {
	name := strings.ToLower(strings.TrimSpace(itemName))
	if name == "" {
		return ""
	}

	if tag, ok := exactMatch[name]; ok {
		return tag
	}

	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.tag
		}
	}

	return ""
}

var exactMatch = map[string]string{
	// produce
	"apple":        "produce",
	"apples":       "produce",
	"banana":       "produce",
	"bananas":      "produce",
	"orange":       "produce",
	"oranges":      "produce",
	"lemon":        "produce",
	"lemons":       "produce",
	"lime":         "produce",
	"limes":        "produce",
	"avocado":      "produce",
	"avocados":     "produce",
	"tomato":       "produce",
	"tomatoes":     "produce",
	"potato":       "produce",
	"potatoes":     "produce",
	"onion":        "produce",
	"onions":       "produce",
	"garlic":       "produce",
	"lettuce":      "produce",
	"spinach":      "produce",
	"kale":         "produce",
	"broccoli":     "produce",
	"carrots":      "produce",
	"celery":       "produce",
	"cucumber":     "produce",
	"peppers":      "produce",
	"mushrooms":    "produce",
	"corn":         "produce",
	"grapes":       "produce",
	"strawberries": "produce",
	"blueberries":  "produce",
	"watermelon":   "produce",
	"pineapple":    "produce",
	"mango":        "produce",
	"peach":        "produce",
	"peaches":      "produce",
	"pear":         "produce",
	"pears":        "produce",
	"cilantro":     "produce",
	"basil":        "produce",
	"ginger":       "produce",
	"zucchini":     "produce",
	"asparagus":    "produce",
	"green beans":  "produce",

	// dairy
	"milk":           "dairy",
	"eggs":           "dairy",
	"butter":         "dairy",
	"cheese":         "dairy",
	"yogurt":         "dairy",
	"cream":          "dairy",
	"sour cream":     "dairy",
	"cream cheese":   "dairy",
	"cottage cheese": "dairy",
	"half and half":  "dairy",

	// meat
	"chicken":      "meat",
	"beef":         "meat",
	"pork":         "meat",
	"bacon":        "meat",
	"sausage":      "meat",
	"ham":          "meat",
	"turkey":       "meat",
	"salmon":       "meat",
	"shrimp":       "meat",
	"tuna":         "meat",
	"ground beef":  "meat",
	"steak":        "meat",
	"hot dogs":     "meat",
	"deli meat":    "meat",
	"lamb":         "meat",
	"cod":          "meat",
	"tilapia":      "meat",
	"crab":         "meat",
	"pork chops":   "meat",
	"chicken wings": "meat",

	// bakery
	"bread":       "bakery",
	"bagels":      "bakery",
	"tortillas":   "bakery",
	"buns":        "bakery",
	"rolls":       "bakery",
	"croissants":  "bakery",
	"muffins":     "bakery",
	"pita":        "bakery",
	"sourdough":   "bakery",
	"baguette":    "bakery",
	"english muffins": "bakery",

	// pantry
	"rice":          "pantry",
	"pasta":         "pantry",
	"flour":         "pantry",
	"sugar":         "pantry",
	"salt":          "pantry",
	"pepper":        "pantry",
	"olive oil":     "pantry",
	"vegetable oil": "pantry",
	"cereal":        "pantry",
	"oatmeal":       "pantry",
	"peanut butter": "pantry",
	"jelly":         "pantry",
	"honey":         "pantry",
	"ketchup":       "pantry",
	"mustard":       "pantry",
	"mayonnaise":    "pantry",
	"soy sauce":     "pantry",
	"vinegar":       "pantry",
	"beans":         "pantry",
	"lentils":       "pantry",
	"canned tomatoes": "pantry",
	"chicken broth": "pantry",
	"tomato sauce":  "pantry",
	"salsa":         "pantry",

	// frozen
	"ice cream":       "frozen",
	"frozen pizza":    "frozen",
	"frozen peas":     "frozen",
	"frozen corn":     "frozen",
	"frozen berries":  "frozen",
	"frozen waffles":  "frozen",
	"frozen fries":    "frozen",

	// drinks
	"coffee":       "drinks",
	"tea":          "drinks",
	"juice":        "drinks",
	"orange juice": "drinks",
	"soda":         "drinks",
	"beer":         "drinks",
	"wine":         "drinks",
	"sparkling water": "drinks",
	"kombucha":     "drinks",

	// snacks
	"chips":    "snacks",
	"crackers": "snacks",
	"popcorn":  "snacks",
	"pretzels": "snacks",
	"cookies":  "snacks",
	"granola bars": "snacks",
	"trail mix":    "snacks",
	"nuts":     "snacks",
	"almonds":  "snacks",
	"chocolate": "snacks",

	// house
	"paper towels":  "house",
	"toilet paper":  "house",
	"dish soap":     "house",
	"laundry detergent": "house",
	"trash bags":    "house",
	"sponges":       "house",
	"aluminum foil": "house",
	"plastic wrap":  "house",
	"batteries":     "house",
	"light bulbs":   "house",

	// care
	"shampoo":     "care",
	"conditioner": "care",
	"toothpaste":  "care",
	"deodorant":   "care",
	"soap":        "care",
	"lotion":      "care",
	"razors":      "care",
	"sunscreen":   "care",
}

type substringEntry struct {
	keyword string
	tag     string
}

// Ordered with longer, more specific keywords first so "ice cream" does not
// land on "cream".
var substringMatches = []substringEntry{
	{"frozen", "frozen"},
	{"ice cream", "frozen"},
	{"organic", "produce"},
	{"salad", "produce"},
	{"berries", "produce"},
	{"cheese", "dairy"},
	{"yogurt", "dairy"},
	{"milk", "dairy"},
	{"chicken", "meat"},
	{"beef", "meat"},
	{"fish", "meat"},
	{"bread", "bakery"},
	{"cake", "bakery"},
	{"sauce", "pantry"},
	{"canned", "pantry"},
	{"spice", "pantry"},
	{"oil", "pantry"},
	{"juice", "drinks"},
	{"water", "drinks"},
	{"coffee", "drinks"},
	{"tea", "drinks"},
	{"chip", "snacks"},
	{"candy", "snacks"},
	{"cleaner", "house"},
	{"detergent", "house"},
	{"paper", "house"},
	{"soap", "care"},
	{"tooth", "care"},
}
