package plsom

import (
	"github.com/hupe1980/plsom/persistence"
	"github.com/hupe1980/plsom/recursive"
	"github.com/hupe1980/plsom/som"
)

func init() {
	for _, kind := range som.Kinds() {
		persistence.Register(kind, som.NewFromConfig)
	}
	for _, kind := range recursive.Kinds() {
		persistence.Register(kind, recursive.NewFromConfig)
	}
}
