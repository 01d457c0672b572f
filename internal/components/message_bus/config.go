package message_bus

import "time"

// Config 消息总线配置；transport: memory | redis
type Config struct {
	Enabled        bool          `yaml:"enabled" json:"enabled"`
	Transport      string        `yaml:"transport" json:"transport"`
	ChannelPrefix  string        `yaml:"channel_prefix" json:"channel_prefix"`
	MailboxSize    int           `yaml:"mailbox_size" json:"mailbox_size"`
	PublishTimeout time.Duration `yaml:"publish_timeout" json:"publish_timeout"`
}
