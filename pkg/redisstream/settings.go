package redisstream

import (
	"github.com/go-go-golems/glazed/pkg/cmds/fields"
	"github.com/go-go-golems/glazed/pkg/cmds/schema"
)

const Slug = "redis"

// Settings holds the Redis Streams transport configuration for watermill.
type Settings struct {
	Enabled  bool   `glazed:"redis-enabled"`
	Addr     string `glazed:"redis-addr"`
	Group    string `glazed:"redis-group"`
	Consumer string `glazed:"redis-consumer"`
}

func DefaultSettings() Settings {
	return Settings{
		Addr:     "localhost:6379",
		Group:    "chatwidget",
		Consumer: "backend-1",
	}
}

// NewSection returns the redis-* flags, defaulting to DefaultSettings.
func NewSection() (schema.Section, error) {
	d := DefaultSettings()
	return schema.NewSection(
		Slug,
		"Redis Streams transport for chat exchange events",
		schema.WithFields(
			fields.New("redis-enabled", fields.TypeBool,
				fields.WithHelp("Publish chat exchanges on Redis Streams instead of in memory"),
				fields.WithDefault(d.Enabled)),
			fields.New("redis-addr", fields.TypeString,
				fields.WithHelp("Redis address host:port"),
				fields.WithDefault(d.Addr)),
			fields.New("redis-group", fields.TypeString,
				fields.WithHelp("Redis consumer group"),
				fields.WithDefault(d.Group)),
			fields.New("redis-consumer", fields.TypeString,
				fields.WithHelp("Redis consumer name"),
				fields.WithDefault(d.Consumer)),
		),
	)
}
