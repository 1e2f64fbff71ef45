// Package cli is the allergozyme command-line front end. Every command loads
// the configuration, opens the data layer facade, waits for it to be ready,
// runs and closes it again.
//
//	allergozyme user create --email ana@example.com --firstname Ana
//	allergozyme review add --name "Chez Ana" --note 5 --address "1 rue de Paris" --geocode
//	allergozyme review list --mine
//	allergozyme export --out backup.json
//
// Navigation requests of the data layer (sign-out, auth guards) are printed
// as "redirect: <page>" lines.
package cli
