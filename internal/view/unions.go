package view

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bunchup/bunchup/internal/client"
	"github.com/bunchup/bunchup/internal/inflight"
	"github.com/bunchup/bunchup/internal/model"
)

type UnionAPI interface {
	List(ctx context.Context, f client.UnionFilter) ([]model.Union, error)
	Industries(ctx context.Context) ([]string, error)
	Join(ctx context.Context, unionID int64) (*model.Message, error)
	Leave(ctx context.Context, unionID int64) (*model.Message, error)
}

type UnionDirectory struct {
	api     UnionAPI
	who     Identity
	pending *inflight.Tracker

	mu         sync.Mutex
	unions     []model.Union
	industries []string
}

func NewUnionDirectory(api UnionAPI, who Identity) *UnionDirectory {
	return &UnionDirectory{api: api, who: who, pending: inflight.New()}
}

// Load fetches the unions and the industry list.
func (d *UnionDirectory) Load(ctx context.Context) error {
	unions, err := d.api.List(ctx, client.UnionFilter{})
	if err != nil {
		return err
	}
	industries, err := d.api.Industries(ctx)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.unions = unions
	d.industries = industries
	d.mu.Unlock()
	return nil
}

func (d *UnionDirectory) Unions() []model.Union {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.Union(nil), d.unions...)
}

func (d *UnionDirectory) Industries() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.industries...)
}

// Filter narrows the loaded unions without a round trip. industry matches
// exactly; search is a case-insensitive substring of name, description or tags.
func (d *UnionDirectory) Filter(industry, search string) []model.Union {
	search = strings.ToLower(strings.TrimSpace(search))
	var out []model.Union
	for _, u := range d.Unions() {
		if industry != "" && model.Deref(u.Industry) != industry {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(model.Deref(u.Description)), search) &&
			!strings.Contains(strings.ToLower(model.Deref(u.Tags)), search) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func Tags(u model.Union) []string {
	return model.SplitTags(u.Tags)
}

// ToggleMembership joins or leaves depending on the loaded is_member flag,
// then reloads so counts come from the server.
func (d *UnionDirectory) ToggleMembership(ctx context.Context, unionID int64) (string, error) {
	if _, err := d.who.Require(); err != nil {
		return "", err
	}
	release, ok := d.pending.Begin(fmt.Sprintf("member/%d", unionID))
	if !ok {
		return "", inflight.ErrBusy
	}
	defer release()

	var member, found bool
	for _, u := range d.Unions() {
		if u.ID == unionID {
			member, found = u.IsMember, true
			break
		}
	}
	if !found {
		return "", fmt.Errorf("union %d is not loaded", unionID)
	}

	var msg *model.Message
	var err error
	if member {
		msg, err = d.api.Leave(ctx, unionID)
	} else {
		msg, err = d.api.Join(ctx, unionID)
	}
	if err != nil {
		return "", err
	}
	if err := d.Load(ctx); err != nil {
		return msg.Message, err
	}
	return msg.Message, nil
}
