package config

import (
	"counterbot/pkg/counters"
	"counterbot/pkg/logger"
)

// ToLoggerConfig converts LoggerConfig to logger.Config.
func (lc *LoggerConfig) ToLoggerConfig() *logger.Config {
	return &logger.Config{
		Level:            logger.ParseLevel(lc.Level),
		OutputPath:       expandPath(lc.OutputPath),
		MaxSize:          lc.MaxSize,
		MaxBackups:       lc.MaxBackups,
		MaxAge:           lc.MaxAge,
		Compress:         lc.Compress,
		Development:      lc.Development,
		EnableStacktrace: true,
	}
}

// ToStoreConfig converts StoreConfig to counters.StoreConfig.
func (sc *StoreConfig) ToStoreConfig() *counters.StoreConfig {
	return &counters.StoreConfig{
		Backend:       counters.BackendType(sc.Backend),
		FilePath:      expandPath(sc.FilePath),
		WatchFile:     sc.WatchFile,
		SQLitePath:    expandPath(sc.SQLitePath),
		RedisAddr:     sc.RedisAddr,
		RedisPassword: sc.RedisPassword,
		RedisDB:       sc.RedisDB,
		RedisPrefix:   sc.RedisPrefix,
		IDRefresh:     sc.IDRefresh,
	}
}
