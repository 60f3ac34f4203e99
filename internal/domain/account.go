package domain

// Account is the balance state of a single client
type Account struct {
	Client    ClientID `json:"client"`
	Available Amount   `json:"available"`
	Held      Amount   `json:"held"`
	Total     Amount   `json:"total"`
	Locked    bool     `json:"locked"`
}

// NewAccount returns an empty, unlocked account
func NewAccount(client ClientID) Account {
	return Account{Client: client}
}

// Balanced reports whether total == available + held
func (a Account) Balanced() bool {
	return a.Total == a.Available.Add(a.Held)
}
