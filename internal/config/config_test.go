package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/bncc/internal/config"
	"github.com/okian/bncc/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.StoreTimeout(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.RecordsTable, convey.ShouldEqual, "relatorios_bncc")
			convey.So(cfg.SchoolsTable, convey.ShouldEqual, "escolas")
			convey.So(cfg.ConstructorsTable, convey.ShouldEqual, "construtores")
			convey.So(cfg.LookupColumn, convey.ShouldEqual, "nome")
			convey.So(cfg.MaxSessions, convey.ShouldEqual, 1000)
			convey.So(cfg.DiscardFailedEntries, convey.ShouldBeFalse)
			convey.So(cfg.RecordVariant(), convey.ShouldEqual, model.VariantSkill)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then Tables mirrors the table fields", func() {
			cfg.RecordsTable = "r"
			tables := cfg.Tables()
			convey.So(tables.Records, convey.ShouldEqual, "r")
			convey.So(tables.LookupColumn, convey.ShouldEqual, "nome")
		})
	})

	convey.Convey("Given invalid configs", t, func() {
		ctx := context.Background()
		cases := map[string]func(*config.Config){
			"empty addr":         func(c *config.Config) { c.Addr = "" },
			"unknown variant":    func(c *config.Config) { c.Variant = "topic" },
			"zero timeout":       func(c *config.Config) { c.StoreTimeoutMS = 0 },
			"zero sessions":      func(c *config.Config) { c.MaxSessions = 0 },
			"empty table":        func(c *config.Config) { c.SchoolsTable = "" },
			"unknown driver":     func(c *config.Config) { c.StoreDriver = "sqlite" },
			"rest without key":   func(c *config.Config) { c.StoreDriver = config.DriverREST; c.StoreURL = "http://x" },
			"postgres needs dsn": func(c *config.Config) { c.StoreDriver = config.DriverPostgres },
		}
		for name, mutate := range cases {
			convey.Convey("When the config has "+name, func() {
				cfg := config.New(ctx)
				mutate(cfg)

				convey.Convey("Then validation wraps ErrInvalidConfig", func() {
					convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})

	convey.Convey("Given a config with an unknown driver", t, func() {
		cfg := config.New(context.Background())
		cfg.StoreDriver = "sqlite"

		convey.Convey("Then the error names the driver kind", func() {
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrUnknownDriver), convey.ShouldBeTrue)
			convey.So(errors.Is(err, config.ErrStoreSettings), convey.ShouldBeFalse)
		})
	})
}
