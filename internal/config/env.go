package config

import (
	"os"
	"strings"
)

type Env struct {
	AppAddr          string
	GinMode          string
	DBDSN            string
	JWTSecret        string
	NominatimBaseURL string
	OSRMBaseURL      string
}

func LoadEnv() Env {
	appAddr := strings.TrimSpace(os.Getenv("APP_ADDR"))
	if appAddr == "" {
		appAddr = ":8080"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = "root:@tcp(127.0.0.1:3306)/direction_map?parseTime=true&loc=Local&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s"
	}

	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		secret = "super-secret-key-change-me"
	}

	nominatim := strings.TrimSpace(os.Getenv("NOMINATIM_BASE_URL"))
	if nominatim == "" {
		nominatim = "https://nominatim.openstreetmap.org"
	}

	osrm := strings.TrimSpace(os.Getenv("OSRM_BASE_URL"))
	if osrm == "" {
		osrm = "https://router.project-osrm.org"
	}

	return Env{
		AppAddr:          appAddr,
		GinMode:          ginMode,
		DBDSN:            dsn,
		JWTSecret:        secret,
		NominatimBaseURL: nominatim,
		OSRMBaseURL:      osrm,
	}
}
