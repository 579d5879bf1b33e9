package search

import (
	"math/rand"
)

// PopularSearches seeds the first search when the user has not typed anything.
var PopularSearches = []string{
	"Marvel",
	"Star Wars",
	"Harry Potter",
	"Batman",
	"Lord of the Rings",
}

func RandomPopular() string {
	return PopularSearches[rand.Intn(len(PopularSearches))]
}
