package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// State is the whole persisted ledger. It is always saved and loaded as one
// document.
type State struct {
	PIN           *string        `json:"pin"`
	Theme         string         `json:"theme"`
	Accounts      []Account      `json:"cuentas"`
	Movements     []Movement     `json:"movimientos"`
	Subscriptions []Subscription `json:"suscripciones"`
	Debts         []Debt         `json:"deudas"`
	Savings       []SavingsGoal  `json:"ahorros"`
	Budgets       Budgets        `json:"budgets"`
}

// NewState returns the empty default state.
func NewState() *State {
	return &State{
		Theme:         ThemeLight,
		Accounts:      []Account{},
		Movements:     []Movement{},
		Subscriptions: []Subscription{},
		Debts:         []Debt{},
		Savings:       []SavingsGoal{},
		Budgets:       Budgets{},
	}
}

// fillDefaults replaces every missing collection with its empty default.
func (s *State) fillDefaults() {
	if s.Theme == "" {
		s.Theme = ThemeLight
	}
	if s.Accounts == nil {
		s.Accounts = []Account{}
	}
	if s.Movements == nil {
		s.Movements = []Movement{}
	}
	if s.Subscriptions == nil {
		s.Subscriptions = []Subscription{}
	}
	if s.Debts == nil {
		s.Debts = []Debt{}
	}
	if s.Savings == nil {
		s.Savings = []SavingsGoal{}
	}
	if s.Budgets == nil {
		s.Budgets = Budgets{}
	}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	c := &State{
		Theme:         s.Theme,
		Accounts:      make([]Account, len(s.Accounts)),
		Movements:     append([]Movement{}, s.Movements...),
		Subscriptions: append([]Subscription{}, s.Subscriptions...),
		Debts:         make([]Debt, len(s.Debts)),
		Savings:       append([]SavingsGoal{}, s.Savings...),
		Budgets:       make(Budgets, len(s.Budgets)),
	}
	if s.PIN != nil {
		pin := *s.PIN
		c.PIN = &pin
	}
	for i, a := range s.Accounts {
		if a.OpeningBalance != nil {
			ob := *a.OpeningBalance
			a.OpeningBalance = &ob
		}
		c.Accounts[i] = a
	}
	for i, d := range s.Debts {
		if d.TermMonths != nil {
			t := *d.TermMonths
			d.TermMonths = &t
		}
		if d.MinimumPayment != nil {
			mp := *d.MinimumPayment
			d.MinimumPayment = &mp
		}
		c.Debts[i] = d
	}
	for k, v := range s.Budgets {
		c.Budgets[k] = v
	}
	return c
}

func (s *State) AccountIndex(id string) int {
	for i := range s.Accounts {
		if s.Accounts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) MovementIndex(id string) int {
	for i := range s.Movements {
		if s.Movements[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) DebtIndex(id string) int {
	for i := range s.Debts {
		if s.Debts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) SavingsIndex(id string) int {
	for i := range s.Savings {
		if s.Savings[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) SubscriptionIndex(id string) int {
	for i := range s.Subscriptions {
		if s.Subscriptions[i].ID == id {
			return i
		}
	}
	return -1
}

// MethodName returns the display name of a payment method.
func (s *State) MethodName(p PaymentMethod) string {
	if p.IsCash() {
		return "Cash"
	}
	if i := s.AccountIndex(string(p)); i >= 0 {
		return s.Accounts[i].Alias
	}
	return "Deleted account"
}

// HasMovementsFor reports whether any movement uses the account as payment method.
func (s *State) HasMovementsFor(accountID string) bool {
	for _, m := range s.Movements {
		if string(m.Method) == accountID {
			return true
		}
	}
	return false
}

// HasContributions reports whether any savings movement references the goal.
func (s *State) HasContributions(goalID string) bool {
	for _, m := range s.Movements {
		if m.RefID == goalID && m.Category == CategorySavings {
			return true
		}
	}
	return false
}

// NetEffect sums the signed effect of every movement paid with p.
func (s *State) NetEffect(p PaymentMethod) Money {
	total := Zero()
	for _, m := range s.Movements {
		if m.Method == p {
			total = total.Add(m.Effect())
		}
	}
	return total
}

// EncodeState serializes the whole state.
func EncodeState(s *State) ([]byte, error) {
	return json.Marshal(s)
}

// DecodeState parses a persisted blob. Missing collections get their empty
// default and Spanish enum values from older backups are normalized.
func DecodeState(data []byte) (*State, error) {
	s := NewState()
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}
	// Decode onto a zero state so absent keys stay nil and can be detected.
	var raw State
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	raw.fillDefaults()
	raw.normalizeLegacy()
	return &raw, nil
}

var legacyCategories = map[Category]Category{
	"comida":          CategoryFood,
	"transporte":      CategoryTransport,
	"vivienda":        CategoryHousing,
	"entretenimiento": CategoryEntertainment,
	"salud":           CategoryHealth,
	"suscripcion":     CategorySubscription,
	"pago deuda":      CategoryDebtPayment,
	"salario":         CategorySalary,
	"ahorro":          CategorySavings,
	"ajuste":          CategoryAdjustment,
	"otros":           CategoryOther,
}

func normalizeMethod(p PaymentMethod) PaymentMethod {
	if p == "efectivo" {
		return Cash
	}
	return p
}

func (s *State) normalizeLegacy() {
	for i := range s.Movements {
		m := &s.Movements[i]
		switch m.Direction {
		case "ingreso":
			m.Direction = Income
		case "egreso":
			m.Direction = Expense
		}
		m.Method = normalizeMethod(m.Method)
		if c, ok := legacyCategories[m.Category]; ok {
			m.Category = c
		}
	}
	for i := range s.Subscriptions {
		s.Subscriptions[i].Method = normalizeMethod(s.Subscriptions[i].Method)
	}
	if len(s.Budgets) > 0 {
		budgets := make(Budgets, len(s.Budgets))
		for c, v := range s.Budgets {
			if n, ok := legacyCategories[c]; ok {
				c = n
			}
			budgets[c] = v
		}
		s.Budgets = budgets
	}
	for i := range s.Accounts {
		a := &s.Accounts[i]
		if a.OpeningBalance == nil {
			ob := a.Balance.Sub(s.NetEffect(PaymentMethod(a.ID)))
			a.OpeningBalance = &ob
		}
	}
}
