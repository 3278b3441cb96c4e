package client

import (
	"reflect"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

var schemas sync.Map

// SchemaFor returns the resolved JSON schema inferred from T. Unknown
// properties are allowed at every level so that new server fields do not
// break older clients.
func SchemaFor[T any]() (*jsonschema.Resolved, error) {
	t := reflect.TypeFor[T]()

	if s, ok := schemas.Load(t); ok {
		return s.(*jsonschema.Resolved), nil
	}

	schema, err := jsonschema.For[T](nil)

	if err != nil {
		return nil, err
	}

	relaxSchema(schema)

	resolved, err := schema.Resolve(nil)

	if err != nil {
		return nil, err
	}

	s, _ := schemas.LoadOrStore(t, resolved)
	return s.(*jsonschema.Resolved), nil
}

func relaxSchema(s *jsonschema.Schema) {
	if s == nil {
		return
	}

	if s.Properties != nil {
		s.AdditionalProperties = nil
	}

	for _, p := range s.Properties {
		relaxSchema(p)
	}

	relaxSchema(s.Items)
	relaxSchema(s.AdditionalProperties)
}
