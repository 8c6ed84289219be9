package config

type AppConfig struct {
	Server  ServerConfig
	Log     LogConfig
	Table   TableConfig
	Payment PaymentConfig
	Auth    AuthConfig
	Redis   RedisConfig
}

func LoadApp() (AppConfig, error) {
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	tableCfg, err := LoadTable()
	if err != nil {
		return AppConfig{}, err
	}
	paymentCfg, err := LoadPayment()
	if err != nil {
		return AppConfig{}, err
	}
	authCfg, err := LoadAuth()
	if err != nil {
		return AppConfig{}, err
	}
	redisCfg, err := LoadRedis()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server:  serverCfg,
		Log:     logCfg,
		Table:   tableCfg,
		Payment: paymentCfg,
		Auth:    authCfg,
		Redis:   redisCfg,
	}, nil
}
