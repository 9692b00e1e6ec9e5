// config.go
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	MongoURI            string
	MongoDBName         string
	AuthURL             string
	RabbitURL           string
	NotifyExchange      string
	Port                string
	PublicURL           string
	ShipCountries       []string
	LogLevel            string
	StripeSecretKey     string
	StripeWebhookSecret string
	MailFrom            string
}

// Claves sin valor por defecto: si falta alguna el proceso no arranca.
// RABBIT_URL es la credencial del sink de mails (el mailer consume del broker).
var requiredKeys = []string{
	"STRIPE_SECRET_KEY",
	"STRIPE_WEBHOOK_SECRET",
	"RABBIT_URL",
	"MAIL_FROM",
}

func Load() (*Config, error) {
	// .env es opcional; en producción las variables vienen del entorno.
	_ = godotenv.Load()
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("MONGO_URI", "mongodb://host.docker.internal:27017")
	v.SetDefault("MONGO_DB_NAME", "storefront")
	v.SetDefault("AUTH_URL", "http://host.docker.internal:3000")
	v.SetDefault("NOTIFY_EXCHANGE", "order_notifications")
	v.SetDefault("PORT", "8080")
	v.SetDefault("PUBLIC_URL", "http://localhost:3000")
	v.SetDefault("SHIP_COUNTRIES", "US,CA")
	v.SetDefault("LOG_LEVEL", "info")
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	var missing []string
	for _, k := range requiredKeys {
		if strings.TrimSpace(v.GetString(k)) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment: %s", strings.Join(missing, ", "))
	}

	return &Config{
		MongoURI:            v.GetString("MONGO_URI"),
		MongoDBName:         v.GetString("MONGO_DB_NAME"),
		AuthURL:             v.GetString("AUTH_URL"),
		RabbitURL:           v.GetString("RABBIT_URL"),
		NotifyExchange:      v.GetString("NOTIFY_EXCHANGE"),
		Port:                v.GetString("PORT"),
		PublicURL:           strings.TrimRight(v.GetString("PUBLIC_URL"), "/"),
		ShipCountries:       splitList(v.GetString("SHIP_COUNTRIES")),
		LogLevel:            strings.ToLower(v.GetString("LOG_LEVEL")),
		StripeSecretKey:     v.GetString("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: v.GetString("STRIPE_WEBHOOK_SECRET"),
		MailFrom:            v.GetString("MAIL_FROM"),
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
