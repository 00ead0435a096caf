// Package rules applies user-maintained payee and account rules to
// canonical transactions.
//
// Two YAML files drive it: payees.yaml rewrites raw bank descriptions
// into clean payee names via case-insensitive regular expressions,
// accounts.yaml assigns an expense or income account to a clean payee
// via case-insensitive exact match. Both evaluate in file order, first
// match wins, and a transaction nothing matches falls through
// unchanged into Expenses:Uncategorized.
package rules

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"finfeed/internal/canon"
)

// Rule file names inside the rules directory.
const (
	PayeesFile   = "payees.yaml"
	AccountsFile = "accounts.yaml"
)

// UncategorizedAccount receives every transaction no account rule
// matches. Its balance is the review backlog.
const UncategorizedAccount = "Expenses:Uncategorized"

// PayeeRule rewrites raw descriptions matching Pattern to Name.
// Pattern is an unanchored, case-insensitive regular expression.
type PayeeRule struct {
	Pattern string `yaml:"pattern"`
	Name    string `yaml:"name"`
}

// AccountRule assigns Account to the clean payee named by Payee.
// Matching is exact apart from letter case.
type AccountRule struct {
	Payee   string `yaml:"payee"`
	Account string `yaml:"account"`
}

// RuleSet holds the rules in file order, payee patterns compiled.
type RuleSet struct {
	PayeeRules   []PayeeRule
	AccountRules []AccountRule

	payeeRE []*regexp.Regexp
}

type payeesDoc struct {
	Rules []PayeeRule `yaml:"rules"`
}

type accountsDoc struct {
	Rules []AccountRule `yaml:"rules"`
}

// New builds a rule set. Every payee pattern is compiled eagerly and
// case-insensitively; one bad pattern fails the whole set so broken
// rules surface at load time, not mid-ingestion.
func New(payees []PayeeRule, accounts []AccountRule) (*RuleSet, error) {
	rs := &RuleSet{
		PayeeRules:   payees,
		AccountRules: accounts,
		payeeRE:      make([]*regexp.Regexp, 0, len(payees)),
	}

	for _, r := range payees {
		if r.Pattern == "" {
			return nil, fmt.Errorf("payee rule for %q: pattern is empty", r.Name)
		}
		if r.Name == "" {
			return nil, fmt.Errorf("payee rule %q: name is empty", r.Pattern)
		}
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("payee rule %q: %w", r.Pattern, err)
		}
		rs.payeeRE = append(rs.payeeRE, re)
	}

	for _, r := range accounts {
		if r.Payee == "" {
			return nil, fmt.Errorf("account rule for %q: payee is empty", r.Account)
		}
		if r.Account == "" {
			return nil, fmt.Errorf("account rule %q: account is empty", r.Payee)
		}
	}

	return rs, nil
}

// Load reads payees.yaml and accounts.yaml from dir and builds the
// set. A missing file means no rules of that kind; the rules directory
// is never required to exist before the first rule is written.
func Load(dir string) (*RuleSet, error) {
	var payees payeesDoc
	if err := loadDoc(filepath.Join(dir, PayeesFile), &payees); err != nil {
		return nil, err
	}

	var accounts accountsDoc
	if err := loadDoc(filepath.Join(dir, AccountsFile), &accounts); err != nil {
		return nil, err
	}

	return New(payees.Rules, accounts.Rules)
}

func loadDoc(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read rules file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Save writes both rule files back to dir wholesale, creating the
// directory if needed.
func Save(dir string, rs *RuleSet) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create rules dir: %w", err)
	}

	if err := saveDoc(filepath.Join(dir, PayeesFile), payeesDoc{Rules: rs.PayeeRules}); err != nil {
		return err
	}
	return saveDoc(filepath.Join(dir, AccountsFile), accountsDoc{Rules: rs.AccountRules})
}

func saveDoc(path string, doc interface{}) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// CleanPayee rewrites a raw bank description using the first matching
// payee rule. With no match the raw description passes through
// unchanged.
func (rs *RuleSet) CleanPayee(raw string) string {
	for i, re := range rs.payeeRE {
		if re.MatchString(raw) {
			return rs.PayeeRules[i].Name
		}
	}
	return raw
}

// Categorize returns the account for a clean payee using the first
// account rule whose payee matches exactly (ignoring case), or
// UncategorizedAccount.
func (rs *RuleSet) Categorize(payee string) string {
	for _, r := range rs.AccountRules {
		if strings.EqualFold(r.Payee, payee) {
			return r.Account
		}
	}
	return UncategorizedAccount
}

// Apply resolves the display payee and the offsetting account for one
// transaction. Payee rules see the raw description; account rules see
// the cleaned payee, so one account rule covers every raw variant a
// payee rule folds together.
func (rs *RuleSet) Apply(txn canon.Transaction) (payee, account string) {
	payee = rs.CleanPayee(txn.Payee)
	account = rs.Categorize(payee)
	return payee, account
}

// WithPayeeRule returns a new rule set with the rule appended. The
// receiver is not modified.
func (rs *RuleSet) WithPayeeRule(r PayeeRule) (*RuleSet, error) {
	payees := append(append([]PayeeRule{}, rs.PayeeRules...), r)
	accounts := append([]AccountRule{}, rs.AccountRules...)
	return New(payees, accounts)
}

// WithAccountRule returns a new rule set with the rule appended. The
// receiver is not modified.
func (rs *RuleSet) WithAccountRule(r AccountRule) (*RuleSet, error) {
	payees := append([]PayeeRule{}, rs.PayeeRules...)
	accounts := append(append([]AccountRule{}, rs.AccountRules...), r)
	return New(payees, accounts)
}
