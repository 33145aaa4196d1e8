package domain

import "github.com/samber/lo"

// Favorites is the session's list of saved product ids, without duplicates.
type Favorites []int64

func (f Favorites) Add(id int64) Favorites {
	if lo.Contains(f, id) {
		return f
	}
	return append(f, id)
}

func (f Favorites) Remove(id int64) Favorites { return lo.Without(f, id) }
