package repository

import (
	"context"
	"encoding/json"

	"github.com/skylark-im/skylark/infrastructure/valkey"
	"github.com/skylark-im/skylark/realtime/domain/presence"
)

// tombstone marks a list slot scheduled for removal (LSET + LREM idiom).
const tombstone = "__removed__"

// ValkeyTypingList implements presence.List over a Valkey list of JSON
// entries, one list per channel. Valkey gives the multi-writer,
// eventually-visible semantics the typing container needs; every peer
// appends its own entry and only ever touches its own slots.
type ValkeyTypingList struct {
	client *valkey.Client
	prefix string
}

// NewValkeyTypingList creates a new ValkeyTypingList instance.
func NewValkeyTypingList(client *valkey.Client) *ValkeyTypingList {
	return &ValkeyTypingList{
		client: client,
		prefix: client.Key("typing") + ":",
	}
}

func (s *ValkeyTypingList) listKey(channelID string) string {
	return s.prefix + channelID
}

// markerKey tracks container existence independently of list content,
// since an empty Valkey list has no key.
func (s *ValkeyTypingList) markerKey(channelID string) string {
	return s.prefix + "m:" + channelID
}

func (s *ValkeyTypingList) Exists(ctx context.Context, channelID string) (bool, error) {
	cmd := s.client.Inner().B().Exists().
		Key(s.markerKey(channelID)).
		Key(s.listKey(channelID)).
		Build()
	n, err := s.client.Inner().Do(ctx, cmd).AsInt64()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *ValkeyTypingList) Create(ctx context.Context, channelID string) error {
	cmd := s.client.Inner().B().Set().
		Key(s.markerKey(channelID)).
		Value("1").
		Build()
	return s.client.Inner().Do(ctx, cmd).Error()
}

func (s *ValkeyTypingList) Get(ctx context.Context, channelID string) ([]presence.Entry, error) {
	cmd := s.client.Inner().B().Lrange().
		Key(s.listKey(channelID)).
		Start(0).
		Stop(-1).
		Build()
	values, err := s.client.Inner().Do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, err
	}

	entries := make([]presence.Entry, 0, len(values))
	for _, val := range values {
		if val == "" || val == tombstone {
			continue
		}
		var e presence.Entry
		if err := json.Unmarshal([]byte(val), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (s *ValkeyTypingList) Append(ctx context.Context, channelID string, e presence.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	cmd := s.client.Inner().B().Rpush().
		Key(s.listKey(channelID)).
		Element(string(data)).
		Build()
	return s.client.Inner().Do(ctx, cmd).Error()
}

func (s *ValkeyTypingList) SetField(ctx context.Context, channelID string, index int, field string, value any) error {
	key := s.listKey(channelID)

	getCmd := s.client.Inner().B().Lindex().Key(key).Index(int64(index)).Build()
	raw, err := s.client.Inner().Do(ctx, getCmd).ToString()
	if err != nil {
		if valkey.IsNil(err) {
			return ErrIndexOutOfRange
		}
		return err
	}

	var e presence.Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return err
	}
	e.ApplyField(field, value)

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	setCmd := s.client.Inner().B().Lset().
		Key(key).
		Index(int64(index)).
		Element(string(data)).
		Build()
	return s.client.Inner().Do(ctx, setCmd).Error()
}

func (s *ValkeyTypingList) RemoveAt(ctx context.Context, channelID string, index int) error {
	key := s.listKey(channelID)

	setCmd := s.client.Inner().B().Lset().
		Key(key).
		Index(int64(index)).
		Element(tombstone).
		Build()
	if err := s.client.Inner().Do(ctx, setCmd).Error(); err != nil {
		return err
	}

	remCmd := s.client.Inner().B().Lrem().
		Key(key).
		Count(1).
		Element(tombstone).
		Build()
	return s.client.Inner().Do(ctx, remCmd).Error()
}
