package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/skylark-im/skylark/realtime/domain/stream"
)

type channelRow struct {
	ID   string `gorm:"primaryKey"`
	Name string
	Kind string
}

func (channelRow) TableName() string { return "channels" }

type messageRow struct {
	ID        string `gorm:"primaryKey"`
	ChannelID string `gorm:"index"`
	Sender    string
	Content   string
	CreatedAt time.Time `gorm:"index"`
}

func (messageRow) TableName() string { return "messages" }

// GormStream implements stream.Reader over the local sqlite message cache
// that the replication layer keeps up to date. Record/SaveChannel exist so
// the ingest side has something to write through; the tracker never calls
// them.
type GormStream struct {
	db *gorm.DB
}

func NewGormStream(db *gorm.DB) (*GormStream, error) {
	if err := db.AutoMigrate(&channelRow{}, &messageRow{}); err != nil {
		return nil, err
	}
	return &GormStream{db: db}, nil
}

// SaveChannel upserts a channel descriptor.
func (s *GormStream) SaveChannel(ctx context.Context, ch stream.Channel) error {
	row := channelRow{ID: ch.ID, Name: ch.Name, Kind: string(ch.Kind)}
	return s.db.WithContext(ctx).Save(&row).Error
}

// Record appends a replicated message to the cache.
func (s *GormStream) Record(ctx context.Context, msg stream.Message) error {
	row := messageRow{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		Sender:    msg.Sender,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *GormStream) Channels(ctx context.Context) ([]stream.Channel, error) {
	var rows []channelRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	channels := make([]stream.Channel, 0, len(rows))
	for _, r := range rows {
		channels = append(channels, stream.Channel{
			ID:   r.ID,
			Name: r.Name,
			Kind: stream.Kind(r.Kind),
		})
	}
	return channels, nil
}

func (s *GormStream) Messages(ctx context.Context, channelID string) ([]stream.Message, error) {
	var rows []messageRow
	err := s.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("created_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	msgs := make([]stream.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, stream.Message{
			ID:        r.ID,
			ChannelID: r.ChannelID,
			Sender:    r.Sender,
			Content:   r.Content,
			CreatedAt: r.CreatedAt,
		})
	}
	return msgs, nil
}
