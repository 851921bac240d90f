// Copyright 2014 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package graph

import (
	"fmt"
	"sort"
)

var storeRegistry = make(map[string]StoreRegistration)

type NewStoreFunc func(addr string, opts Options) (Graph, error)
type InitStoreFunc func(addr string, opts Options) error

type StoreRegistration struct {
	NewFunc      NewStoreFunc
	InitFunc     InitStoreFunc
	IsPersistent bool
}

func RegisterStore(name string, register StoreRegistration) {
	if register.NewFunc == nil {
		panic("NewFunc must not be nil")
	}
	if _, found := storeRegistry[name]; found {
		panic(fmt.Sprintf("already registered store %q", name))
	}
	storeRegistry[name] = register
}

// NewStore opens a graph of the registered type name at the given address.
func NewStore(name string, addr string, opts Options) (Graph, error) {
	r, registered := storeRegistry[name]
	if !registered {
		return nil, fmt.Errorf("%w: %q", ErrStoreNotRegistered, name)
	}
	return r.NewFunc(addr, opts)
}

// InitStore prepares the backing store (indexes, schema) without opening it.
func InitStore(name string, addr string, opts Options) error {
	r, registered := storeRegistry[name]
	if !registered {
		return fmt.Errorf("%w: %q", ErrStoreNotRegistered, name)
	} else if r.InitFunc == nil {
		return ErrUnsupportedOperation
	}
	return r.InitFunc(addr, opts)
}

func IsRegistered(name string) bool {
	_, ok := storeRegistry[name]
	return ok
}

func IsPersistent(name string) bool {
	return storeRegistry[name].IsPersistent
}

func Stores() []string {
	t := make([]string, 0, len(storeRegistry))
	for n := range storeRegistry {
		t = append(t, n)
	}
	sort.Strings(t)
	return t
}
