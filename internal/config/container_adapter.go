package config

import (
	"github.com/garyjia/business-trip/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure. Call it on a validated
// Config; unparsable per-diem rates fall back to zero.
func (c *Config) ToContainerConfig() *container.Config {
	rates, _ := c.Policy.Rates()

	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Redis: container.RedisConfig{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		},
		Lark: container.LarkConfig{
			AppID:          c.Lark.AppID,
			AppSecret:      c.Lark.AppSecret,
			BaseURL:        c.Lark.BaseURL,
			ApproverChatID: c.Lark.ApproverChatID,
			UserIDType:     c.Lark.UserIDType,
		},
		OpenAI: container.OpenAIConfig{
			APIKey:      c.OpenAI.APIKey,
			BaseURL:     c.OpenAI.BaseURL,
			Model:       c.OpenAI.Model,
			PromptsPath: c.OpenAI.PromptsPath,
			Timeout:     c.OpenAI.Timeout,
		},
		Policy: container.PolicyConfig{
			HomeCityID:           c.Policy.HomeCityID,
			HomeCountryID:        c.Policy.HomeCountryID,
			Currency:             c.Policy.Currency,
			DomesticPerDiem:      rates.Domestic,
			InternationalPerDiem: rates.International,
		},
		Lock: container.LockConfig{
			Backend: c.Lock.Backend,
			TTL:     c.Lock.TTL,
			Wait:    c.Lock.Wait,
		},
		Storage: container.StorageConfig{
			ReportDir: c.Storage.ReportDir,
		},
		Server: container.ServerConfig{
			Host:            c.Server.Host,
			Port:            c.Server.Port,
			ReadTimeout:     c.Server.ReadTimeout,
			WriteTimeout:    c.Server.WriteTimeout,
			ShutdownTimeout: c.Server.ShutdownTimeout,
		},
	}
}
