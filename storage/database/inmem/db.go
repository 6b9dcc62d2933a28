package inmemdb

import (
	"sync"

	"github.com/trezcool/schoolhub/core/visitor"
)

type (
	visitorTable struct {
		mutex sync.RWMutex
		table map[string]*visitor.Visitor
		items map[string]map[string]string // visitor ID -> key -> value
	}

	DB struct {
		visitor *visitorTable
	}
)

func Open() *DB {
	return &DB{
		visitor: &visitorTable{
			table: make(map[string]*visitor.Visitor),
			items: make(map[string]map[string]string),
		},
	}
}
