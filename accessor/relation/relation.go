// Package relation registers a `relation` validator into the Rule
// Engine's Validator Registry, checking an OpenFGA relation tuple. It is
// a registry extension rather than an Expression Sandbox binding so the
// sandbox stays free of I/O.
package relation

import (
	"context"
	"fmt"

	fga "github.com/openfga/go-sdk"

	"github.com/ruleguard/ruleguard/engine"
)

// Client checks a single relation tuple against an OpenFGA store.
type Client struct {
	Configuration *fga.Configuration
	StoreID       string
}

// NewClient builds a Client pointed at host, scoped to storeID.
func NewClient(host, storeID string) (*Client, error) {
	configuration, err := fga.NewConfiguration(fga.Configuration{
		ApiScheme: "http",
		ApiHost:   host,
	})
	if err != nil {
		return nil, fmt.Errorf("relation: configure openfga client: %w", err)
	}
	return &Client{Configuration: configuration, StoreID: storeID}, nil
}

// Check reports whether user holds relation on object.
func (c *Client) Check(ctx context.Context, user, relation, object string) (bool, error) {
	client := fga.NewAPIClient(c.Configuration)
	client.SetStoreId(c.StoreID)

	data, _, err := client.OpenFgaApi.Check(ctx).Body(fga.CheckRequest{
		TupleKey: fga.TupleKey{
			User:     &user,
			Object:   &object,
			Relation: &relation,
		},
	}).Execute()
	if err != nil {
		return false, fmt.Errorf("relation: check %s %s %s: %w", user, relation, object, err)
	}
	return data.GetAllowed(), nil
}

// relationConfig is the compiled form of a `relation` validator config:
// the relation name to check, and the sandbox-variable names it reads the
// user and object identifiers from.
type relationConfig struct {
	Relation string
	UserVar  string
	ObjectVar string
}

// PrepareConfig compiles a raw {relation, user, object} mapping at
// compile time so a malformed relation rule is fatal at load/add/set, not
// at request time.
func PrepareConfig(raw any) (any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("relation config must be an object with relation/user/object")
	}
	relationName, _ := m["relation"].(string)
	userVar, _ := m["user"].(string)
	objectVar, _ := m["object"].(string)
	if relationName == "" || userVar == "" || objectVar == "" {
		return nil, fmt.Errorf("relation config requires relation, user, and object")
	}
	return &relationConfig{Relation: relationName, UserVar: userVar, ObjectVar: objectVar}, nil
}

// Handler is the `relation` validator's engine.Handler, bound to client as
// a method value. Register it with:
//
//	engine.WithPreparer(relation.PrepareConfig)
func (c *Client) Handler(ctx context.Context, config any, vctx *engine.ValidatorContext) (string, error) {
	if config == engine.Undefined {
		return "", nil
	}
	cfg, ok := config.(*relationConfig)
	if !ok {
		return "", fmt.Errorf("relation: unexpected config type %T", config)
	}
	user, _ := vctx.Injections[cfg.UserVar].(string)
	object, _ := vctx.Injections[cfg.ObjectVar].(string)
	if user == "" || object == "" {
		return "relation requires both user and object to be bound", nil
	}
	allowed, err := c.Check(ctx, user, cfg.Relation, object)
	if err != nil {
		return "", err
	}
	if !allowed {
		return fmt.Sprintf("%s does not hold %q on %s", user, cfg.Relation, object), nil
	}
	return "", nil
}
