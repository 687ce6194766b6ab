package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// GroceryItem is one entry on a user's shopping list.
type GroceryItem struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeItemName trims the name and rejects empty entries.
func NormalizeItemName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", eris.New("model: grocery item name is empty")
	}
	return name, nil
}
