package inventory

type AddressRequest struct {
	Street  string `json:"street" binding:"required,max=255"`
	Number  string `json:"number" binding:"max=20"`
	City    string `json:"city" binding:"required,max=120"`
	ZipCode string `json:"zipCode" binding:"max=20"`
	Country string `json:"country" binding:"required,max=120"`
}

func (a AddressRequest) toModel() Address {
	return Address{Street: a.Street, Number: a.Number, City: a.City, ZipCode: a.ZipCode, Country: a.Country}
}

type CreateStructureRequest struct {
	Name        string         `json:"name" binding:"required,min=2,max=255"`
	Description string         `json:"description" binding:"max=5000"`
	Address     AddressRequest `json:"address" binding:"required"`
	Phone       string         `json:"phone" binding:"max=50"`
	Email       string         `json:"email" binding:"omitempty,email"`
	WebsiteURL  string         `json:"websiteUrl" binding:"omitempty,url"`
}

type UpdateStructureRequest struct {
	Name        *string         `json:"name" binding:"omitempty,min=2,max=255"`
	Description *string         `json:"description" binding:"omitempty,max=5000"`
	Address     *AddressRequest `json:"address"`
	Phone       *string         `json:"phone" binding:"omitempty,max=50"`
	Email       *string         `json:"email" binding:"omitempty,email"`
	WebsiteURL  *string         `json:"websiteUrl" binding:"omitempty,url"`
}

type CreateAreaRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"max=2000"`
	MaxCapacity int    `json:"maxCapacity" binding:"required,min=1"`
	IsActive    *bool  `json:"isActive"`
}

type UpdateAreaRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	MaxCapacity *int    `json:"maxCapacity" binding:"omitempty,min=1"`
	IsActive    *bool   `json:"isActive"`
}

type CreateTemplateRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	MaxCapacity int    `json:"maxCapacity" binding:"required,min=1"`
	SeatingType string `json:"seatingType" binding:"required,oneof=SEATED STANDING MIXED"`
	IsActive    *bool  `json:"isActive"`
}

type UpdateTemplateRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	MaxCapacity *int    `json:"maxCapacity" binding:"omitempty,min=1"`
	SeatingType *string `json:"seatingType" binding:"omitempty,oneof=SEATED STANDING MIXED"`
	IsActive    *bool   `json:"isActive"`
}
