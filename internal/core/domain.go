package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  Direction = "income"
	Expense Direction = "expense"

	// Cash is the payment method sentinel for the virtual cash account.
	Cash PaymentMethod = "cash"
)

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryHousing       Category = "housing"
	CategoryEntertainment Category = "entertainment"
	CategoryHealth        Category = "health"
	CategorySubscription  Category = "subscription"
	CategoryDebtPayment   Category = "debt-payment"
	CategorySalary        Category = "salary"
	CategorySavings       Category = "savings"
	CategoryAdjustment    Category = "adjustment"
	CategoryOther         Category = "other"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type (
	// Direction tells whether a movement adds to or takes from its account.
	Direction string

	// PaymentMethod is either Cash or an account id.
	PaymentMethod string

	Category string

	Account struct {
		ID             string `json:"id"`
		Name           string `json:"nombre"`
		Alias          string `json:"alias"`
		Balance        Money  `json:"saldo"`
		OpeningBalance *Money `json:"saldoInicial,omitempty"`
		Color          string `json:"color,omitempty"`
	}

	Movement struct {
		ID          string        `json:"id"`
		Description string        `json:"descripcion"`
		Amount      Money         `json:"monto"`
		Direction   Direction     `json:"tipo"`
		Method      PaymentMethod `json:"metodoPago"`
		Category    Category      `json:"categoria"`
		Date        time.Time     `json:"fecha"`
		// RefID links a synthetic movement to the debt or savings goal it was created for.
		RefID string `json:"refId,omitempty"`
	}

	Debt struct {
		ID             string `json:"id"`
		Description    string `json:"descripcion"`
		Total          Money  `json:"montoTotal"`
		Paid           Money  `json:"montoPagado"`
		TermMonths     *int   `json:"plazo,omitempty"`
		MinimumPayment *Money `json:"pagoMinimo,omitempty"`
	}

	SavingsGoal struct {
		ID      string `json:"id"`
		Name    string `json:"nombre"`
		Target  Money  `json:"montoMeta"`
		Current Money  `json:"montoActual"`
	}

	Subscription struct {
		ID         string        `json:"id"`
		Name       string        `json:"nombre"`
		Amount     Money         `json:"monto"`
		BillingDay int           `json:"fechaCorte"`
		Method     PaymentMethod `json:"metodoPago"`
	}

	// Budgets maps a category to its monthly limit. Zero means no limit.
	Budgets map[Category]Money
)

var (
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyAlias       = errors.New("empty alias")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidMethod    = errors.New("invalid payment method")
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidTerm      = errors.New("invalid term")
	ErrInvalidPIN       = errors.New("PIN must be exactly 4 digits")
	ErrPINMismatch      = errors.New("PINs do not match")
	ErrWrongPIN         = errors.New("wrong PIN")
	ErrInvalidTheme     = errors.New("invalid theme")

	ErrNotFound           = errors.New("not found")
	ErrAccountInUse       = errors.New("account has movements")
	ErrDebtHasPayments    = errors.New("debt has registered payments")
	ErrGoalHasDeposits    = errors.New("savings goal already has contributions")
	ErrLinkedMovement     = errors.New("movement belongs to a debt payment or savings contribution")
	ErrCorruptImport      = errors.New("corrupt import document")
	ErrNotBudgetable      = errors.New("category cannot carry a budget")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrEmptyDescription, ErrEmptyName, ErrEmptyAlias, ErrInvalidAmount,
		ErrInvalidDirection, ErrInvalidCategory, ErrInvalidMethod, ErrInvalidDay,
		ErrInvalidTerm, ErrInvalidPIN, ErrPINMismatch, ErrInvalidTheme,
		ErrNotBudgetable, ErrDescriptionTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var categories = []Category{
	CategoryFood, CategoryTransport, CategoryHousing, CategoryEntertainment,
	CategoryHealth, CategorySubscription, CategoryDebtPayment, CategorySalary,
	CategorySavings, CategoryAdjustment, CategoryOther,
}

// Categories returns every known movement category.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// BudgetableCategories returns the categories that can carry a monthly limit.
func BudgetableCategories() []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		if c.Budgetable() {
			out = append(out, c)
		}
	}
	return out
}

func (c Category) Valid() bool {
	for _, k := range categories {
		if c == k {
			return true
		}
	}
	return false
}

func (c Category) Budgetable() bool {
	return c.Valid() && c != CategorySalary && c != CategoryAdjustment
}

func (d Direction) Valid() bool { return d == Income || d == Expense }

// Sign returns +1 for income and -1 for expense.
func (d Direction) Sign() int {
	if d == Income {
		return 1
	}
	return -1
}

func (p PaymentMethod) IsCash() bool { return p == Cash }

// Effect is the signed amount this movement contributes to its account.
func (m Movement) Effect() Money {
	if m.Direction == Income {
		return m.Amount
	}
	return m.Amount.Neg()
}

// In reports whether the movement falls in the given calendar month of loc.
func (m Movement) In(year int, month time.Month, loc *time.Location) bool {
	t := m.Date.In(loc)
	return t.Year() == year && t.Month() == month
}

func validateText(s string, empty error) error {
	if strings.TrimSpace(s) == "" {
		return empty
	}
	if len(s) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (a Account) Validate() error {
	if err := validateText(a.Name, ErrEmptyName); err != nil {
		return err
	}
	return validateText(a.Alias, ErrEmptyAlias)
}

// Validate checks the movement's own fields. Whether Method names an
// existing account is checked by the engine against the live state.
func (m Movement) Validate() error {
	if err := validateText(m.Description, ErrEmptyDescription); err != nil {
		return err
	}
	if err := m.Amount.ValidatePositive(); err != nil {
		return err
	}
	if !m.Direction.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, m.Direction)
	}
	if !m.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, m.Category)
	}
	if strings.TrimSpace(string(m.Method)) == "" {
		return ErrInvalidMethod
	}
	return nil
}

func (d Debt) Validate() error {
	if err := validateText(d.Description, ErrEmptyDescription); err != nil {
		return err
	}
	if err := d.Total.ValidatePositive(); err != nil {
		return err
	}
	if d.TermMonths != nil && *d.TermMonths <= 0 {
		return ErrInvalidTerm
	}
	if d.MinimumPayment != nil {
		if err := d.MinimumPayment.ValidatePositive(); err != nil {
			return fmt.Errorf("minimum payment: %w", err)
		}
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if err := validateText(g.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := g.Target.ValidatePositive(); err != nil {
		return err
	}
	if g.Current.IsNegative() {
		return fmt.Errorf("current amount: %w", ErrInvalidAmount)
	}
	return nil
}

func (s Subscription) Validate() error {
	if err := validateText(s.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := s.Amount.ValidatePositive(); err != nil {
		return err
	}
	if s.BillingDay < 1 || s.BillingDay > 31 {
		return ErrInvalidDay
	}
	if strings.TrimSpace(string(s.Method)) == "" {
		return ErrInvalidMethod
	}
	return nil
}

// ValidatePIN checks the 4-digit credential format.
func ValidatePIN(pin string) error {
	if len(pin) != 4 {
		return ErrInvalidPIN
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return ErrInvalidPIN
		}
	}
	return nil
}

func ValidateTheme(theme string) error {
	if theme != ThemeLight && theme != ThemeDark {
		return fmt.Errorf("%w: %q", ErrInvalidTheme, theme)
	}
	return nil
}
