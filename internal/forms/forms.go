package forms

import (
	"errors"

	"coffeeshop/internal/checkout"
	"coffeeshop/internal/models"
	"coffeeshop/internal/session"
)

// ProductForm is the admin product editor. Price stays untyped until Draft.
type ProductForm struct {
	Name        string `json:"name" form:"name" validate:"required"`
	Price       any    `json:"price" form:"price"`
	Category    string `json:"category" form:"category" validate:"required"`
	Description string `json:"description" form:"description"`
	Image       string `json:"image" form:"image" validate:"omitempty,url"`
}

func (f ProductForm) Draft() (models.ProductDraft, error) {
	trim(&f.Name, &f.Category, &f.Description, &f.Image)

	var fields []string
	err := check(f)
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		fields = ve.Fields
	} else if err != nil {
		return models.ProductDraft{}, err
	}

	price, perr := ParsePrice(f.Price)
	if perr != nil || !price.Valid || price.Decimal.IsNegative() {
		fields = append(fields, "price")
	}
	if len(fields) > 0 {
		out := &models.ValidationError{Fields: fields}
		if ve != nil {
			out.Reason = ve.Reason
		}
		return models.ProductDraft{}, out
	}
	return models.ProductDraft{
		Name:        f.Name,
		Price:       price,
		Category:    f.Category,
		Description: f.Description,
		Image:       f.Image,
	}, nil
}

type RegisterForm struct {
	Username        string `json:"username" form:"username" validate:"required"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Password        string `json:"password" form:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required,eqfield=Password"`
}

func (f RegisterForm) Validate() (RegisterForm, error) {
	trim(&f.Username, &f.Email)
	return f, check(f)
}

type LoginForm struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (f LoginForm) Validate() (LoginForm, error) {
	trim(&f.Email)
	return f, check(f)
}

type ProfileForm struct {
	Username        string `json:"username" form:"username" validate:"required"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	CurrentPassword string `json:"current_password" form:"current_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
}

func (f ProfileForm) Update() (session.ProfileUpdate, error) {
	trim(&f.Username, &f.Email)
	if err := check(f); err != nil {
		return session.ProfileUpdate{}, err
	}
	return session.ProfileUpdate{
		Username:        f.Username,
		Email:           f.Email,
		CurrentPassword: f.CurrentPassword,
		NewPassword:     f.NewPassword,
	}, nil
}

type CheckoutForm struct {
	Name          string `json:"name" form:"name" validate:"required"`
	Email         string `json:"email" form:"email" validate:"required,email"`
	Address       string `json:"address" form:"address" validate:"required"`
	City          string `json:"city" form:"city" validate:"required"`
	Zip           string `json:"zip" form:"zip" validate:"required"`
	PaymentMethod string `json:"payment_method" form:"payment_method" validate:"required"`
}

func (f CheckoutForm) Checkout() (checkout.Form, error) {
	trim(&f.Name, &f.Email, &f.Address, &f.City, &f.Zip, &f.PaymentMethod)
	if err := check(f); err != nil {
		return checkout.Form{}, err
	}
	return checkout.Form{
		Name:          f.Name,
		Email:         f.Email,
		Address:       f.Address,
		City:          f.City,
		Zip:           f.Zip,
		PaymentMethod: f.PaymentMethod,
	}, nil
}

// StatusForm carries an admin order status change.
type StatusForm struct {
	Status string `json:"status" form:"status" validate:"required,oneof=Pending Processing Delivered"`
}

func (f StatusForm) Parse() (models.OrderStatus, error) {
	trim(&f.Status)
	if err := check(f); err != nil {
		return "", err
	}
	return models.OrderStatus(f.Status), nil
}
