package config

import (
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Thresholds drives the engagement state determiner.
type Thresholds struct {
	NoReplyHours int
	FollowUpDays int
}

// Scheduling drives the meeting slot search and booking.
type Scheduling struct {
	BusinessHourStart   int
	BusinessHourEnd     int
	SlotDurationMinutes int
	LeadDays            int
	MaxLookaheadDays    int
	BookRetries         int
}

// Sweep drives the periodic recalculation worker.
type Sweep struct {
	Interval       time.Duration
	ContactTimeout time.Duration
	Parallelism    int
}

type Config struct {
	Port        string
	DatabaseURL string
	Thresholds  Thresholds
	Scheduling  Scheduling
	Sweep       Sweep
}

// Loader keeps the current config value. A sweep or a booking takes a
// snapshot via Current once and never re-reads mid-run, so file edits
// apply between runs only.
type Loader struct {
	mu  sync.RWMutex
	cfg Config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("thresholds.no_reply_hours", 8)
	v.SetDefault("thresholds.follow_up_days", 4)
	v.SetDefault("scheduling.business_hour_start", 9)
	v.SetDefault("scheduling.business_hour_end", 18)
	v.SetDefault("scheduling.slot_duration_minutes", 60)
	v.SetDefault("scheduling.lead_days", 2)
	v.SetDefault("scheduling.max_lookahead_days", 30)
	v.SetDefault("scheduling.book_retries", 3)
	v.SetDefault("sweep.interval", "1h")
	v.SetDefault("sweep.contact_timeout", "10s")
	v.SetDefault("sweep.parallelism", 8)
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Port:        v.GetString("port"),
		DatabaseURL: v.GetString("database_url"),
		Thresholds: Thresholds{
			NoReplyHours: v.GetInt("thresholds.no_reply_hours"),
			FollowUpDays: v.GetInt("thresholds.follow_up_days"),
		},
		Scheduling: Scheduling{
			BusinessHourStart:   v.GetInt("scheduling.business_hour_start"),
			BusinessHourEnd:     v.GetInt("scheduling.business_hour_end"),
			SlotDurationMinutes: v.GetInt("scheduling.slot_duration_minutes"),
			LeadDays:            v.GetInt("scheduling.lead_days"),
			MaxLookaheadDays:    v.GetInt("scheduling.max_lookahead_days"),
			BookRetries:         v.GetInt("scheduling.book_retries"),
		},
		Sweep: Sweep{
			Interval:       v.GetDuration("sweep.interval"),
			ContactTimeout: v.GetDuration("sweep.contact_timeout"),
			Parallelism:    v.GetInt("sweep.parallelism"),
		},
	}
}

// Load reads outreach.yaml (optional) plus OUTREACH_* env overrides and
// starts watching the file for changes.
func Load() (*Loader, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("outreach")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/outreach")

	v.SetEnvPrefix("OUTREACH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	l := &Loader{cfg: fromViper(v)}

	v.OnConfigChange(func(_ fsnotify.Event) {
		l.mu.Lock()
		l.cfg = fromViper(v)
		l.mu.Unlock()
		log.Println("[config] reloaded")
	})
	if v.ConfigFileUsed() != "" {
		v.WatchConfig()
	}

	return l, nil
}

func (l *Loader) Current() Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// Default returns the built-in values without touching files or env.
// Used by tests and the one-shot sweep command.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}
