// internal/app/store/docstore/memory.go
package docstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is an in-process Collection. Documents round-trip through BSON so
// decoding behaves like the Mongo adapter. Filters support top-level
// equality only; sorts compare dates, strings, numbers and ObjectIDs.
//
// Every operation holds a single mutex, so a ReplaceOne is atomic with
// respect to concurrent readers and writers.
type Memory struct {
	mu   sync.Mutex
	docs []bson.M
	fail error
}

// NewMemory returns an empty in-memory collection.
func NewMemory() *Memory {
	return &Memory{}
}

// FailWith makes every subsequent operation return err (nil restores
// normal behavior).
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// Len returns the number of stored documents.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

func (m *Memory) FindOne(ctx context.Context, filter bson.M, sortSpec bson.D, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	found := m.matching(filter, sortSpec)
	if len(found) == 0 {
		return ErrNotFound
	}
	return decodeInto(found[0], out)
}

func (m *Memory) ReplaceOne(ctx context.Context, filter bson.M, doc any) (ReplaceResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return ReplaceResult{}, m.fail
	}
	next, err := toDoc(doc)
	if err != nil {
		return ReplaceResult{}, err
	}
	for i, existing := range m.docs {
		if !matches(existing, filter) {
			continue
		}
		if id, ok := next["_id"]; ok && !reflect.DeepEqual(id, existing["_id"]) {
			return ReplaceResult{}, errors.New("docstore: replacement may not change _id")
		}
		next["_id"] = existing["_id"]
		if sameDoc(existing, next) {
			return ReplaceResult{Matched: 1}, nil
		}
		m.docs[i] = next
		return ReplaceResult{Matched: 1, Modified: 1}, nil
	}
	if _, ok := next["_id"]; !ok {
		next["_id"] = primitive.NewObjectID()
	}
	m.docs = append(m.docs, next)
	return ReplaceResult{Upserted: 1}, nil
}

func (m *Memory) InsertOne(ctx context.Context, doc any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	d, err := toDoc(doc)
	if err != nil {
		return err
	}
	if _, ok := d["_id"]; !ok {
		d["_id"] = primitive.NewObjectID()
	}
	m.docs = append(m.docs, d)
	return nil
}

func (m *Memory) Find(ctx context.Context, filter bson.M, sortSpec bson.D, limit int64, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("docstore: Find needs a pointer to a slice, got %T", out)
	}
	found := m.matching(filter, sortSpec)
	if limit > 0 && int64(len(found)) > limit {
		found = found[:limit]
	}
	slice := rv.Elem()
	result := reflect.MakeSlice(slice.Type(), 0, len(found))
	for _, d := range found {
		elem := reflect.New(slice.Type().Elem())
		if err := decodeInto(d, elem.Interface()); err != nil {
			return err
		}
		result = reflect.Append(result, elem.Elem())
	}
	slice.Set(result)
	return nil
}

// matching returns the documents matching filter in sort order. Insertion
// order breaks ties.
func (m *Memory) matching(filter bson.M, sortSpec bson.D) []bson.M {
	var out []bson.M
	for _, d := range m.docs {
		if matches(d, filter) {
			out = append(out, d)
		}
	}
	if len(sortSpec) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, key := range sortSpec {
				c := compareValues(out[i][key.Key], out[j][key.Key])
				if c == 0 {
					continue
				}
				if direction(key.Value) < 0 {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	return out
}

func matches(d bson.M, filter bson.M) bool {
	for k, want := range filter {
		if !reflect.DeepEqual(d[k], want) {
			return false
		}
	}
	return true
}

func toDoc(doc any) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var d bson.M
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return d, nil
}

func decodeInto(d bson.M, out any) error {
	raw, err := bson.Marshal(d)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}

func sameDoc(a, b bson.M) bool {
	return reflect.DeepEqual(a, b)
}

func direction(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	}
	return 1
}

// compareValues orders two BSON values of the same kind. Missing values
// sort first.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	switch av := a.(type) {
	case primitive.DateTime:
		if bv, ok := b.(primitive.DateTime); ok {
			return cmpInt64(int64(av), int64(bv))
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case int32:
		if bv, ok := b.(int32); ok {
			return cmpInt64(int64(av), int64(bv))
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return cmpInt64(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case primitive.ObjectID:
		if bv, ok := b.(primitive.ObjectID); ok {
			return bytes.Compare(av[:], bv[:])
		}
	case bool:
		if bv, ok := b.(bool); ok && av != bv {
			if !av {
				return -1
			}
			return 1
		}
		return 0
	}
	return 0
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
