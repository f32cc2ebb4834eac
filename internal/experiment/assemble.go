package experiment

import (
	"sort"

	"github.com/rotisserie/eris"
)

// Assemble merges a partition, its conversion flags and amounts into the
// transactions and groups tables. Transactions are sorted by id; groups list
// control users first, then treatment users. Inputs that do not describe the
// same population are rejected.
func Assemble(p *Partition, flags Conversions, amounts Amounts) (*Tables, error) {
	if len(flags) != p.Size() {
		return nil, eris.Wrapf(ErrInvalidArgument, "have %d conversion flags for %d users", len(flags), p.Size())
	}
	for id := range amounts {
		if !flags[id] {
			return nil, eris.Wrapf(ErrInvalidArgument, "amount for non-converted user %q", id)
		}
	}

	tables := &Tables{
		Transactions: make([]Transaction, 0, p.Size()),
		Groups:       make([]GroupMembership, 0, p.Size()),
	}

	for _, members := range []struct {
		group Group
		ids   []UserID
	}{{GroupControl, p.Control}, {GroupTreatment, p.Treatment}} {
		for _, id := range members.ids {
			converted, ok := flags[id]
			if !ok {
				return nil, eris.Wrapf(ErrInvalidArgument, "no conversion flag for user %q", id)
			}

			tx := Transaction{ID: id}
			if converted {
				amount, ok := amounts[id]
				if !ok {
					return nil, eris.Wrapf(ErrInvalidArgument, "no amount for converted user %q", id)
				}
				tx.Amount = &amount
			}

			tables.Transactions = append(tables.Transactions, tx)
			tables.Groups = append(tables.Groups, GroupMembership{ID: id, Group: members.group})
		}
	}

	sort.Slice(tables.Transactions, func(i, j int) bool {
		return tables.Transactions[i].ID < tables.Transactions[j].ID
	})

	return tables, nil
}
