package models

// Category is referenced by name from MealPlan.Categories; there is no
// foreign key, so renames and deletes leave plans untouched.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ExternalID  string `json:"categoryId,omitempty"`
}

func (c Category) ToRecord() Record {
	rec := Record{
		"name":        c.Name,
		"description": c.Description,
	}
	if c.ExternalID != "" {
		rec["categoryId"] = c.ExternalID
	}
	return rec
}

func DecodeCategory(id string, data Record) (*Category, error) {
	r := newReader("category", id, data)
	c := &Category{
		ID:          id,
		Name:        r.RequiredString("name"),
		Description: r.String("description"),
		ExternalID:  r.String("categoryId"),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return c, nil
}
