package api

// User is the profile object returned by the backend.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
}

// Product is a catalog entry. Field names follow the backend's
// snake_case JSON contract.
type Product struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stock_quantity"`
	ImageURL      string  `json:"image_url,omitempty"`
	Category      string  `json:"category"`
}

// Credentials is the login request payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the register request payload.
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
}

// ProfileUpdate is the partial profile update payload.
// Empty fields are omitted and left unchanged by the backend.
type ProfileUpdate struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// ProductInput is the create/update payload for admin product mutations.
type ProductInput struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stock_quantity"`
	ImageURL      string  `json:"image_url,omitempty"`
	Category      string  `json:"category"`
}

// LoginResult is the session endpoint's success response.
type LoginResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// ProductQuery selects a catalog page.
type ProductQuery struct {
	Page     int
	Limit    int
	Search   string
	Category string
}

// ProductPage is the paginated catalog response envelope.
// The envelope keys are camelCase on the wire, unlike the product fields.
type ProductPage struct {
	Products    []Product `json:"products"`
	CurrentPage int       `json:"currentPage"`
	TotalPages  int       `json:"totalPages"`
}
