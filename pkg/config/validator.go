package config

import (
	"fmt"
	"strings"
)

// Validate 校验配置合法性
func (c *AppConfig) Validate() error {
	g := c.Grocery

	switch g.Storage.Database.Type {
	case "sqlite", "mysql", "postgres", "postgresql", "none":
	default:
		return fmt.Errorf("不支持的数据库类型: %s", g.Storage.Database.Type)
	}
	if g.Storage.Database.Type != "none" && g.Storage.Database.DSN == "" {
		return fmt.Errorf("数据库DSN不能为空")
	}
	if strings.ContainsAny(g.DeepLink.Scheme, ":/ ") {
		return fmt.Errorf("deep_link.scheme 不能包含 ':' '/' 或空格: %q", g.DeepLink.Scheme)
	}
	if g.Server.Port <= 0 || g.Server.Port > 65535 {
		return fmt.Errorf("server.port 超出范围: %d", g.Server.Port)
	}
	return nil
}

// LookupFunc 环境变量查询函数（与os.LookupEnv签名一致）
type LookupFunc func(key string) (string, bool)

// MissingEnvironmentKeys 返回缺失或为空的必需环境变量
func MissingEnvironmentKeys(cfg *AppConfig, lookup LookupFunc) []string {
	missing := make([]string, 0)
	for _, key := range cfg.Grocery.Environment.RequiredKeys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		value, ok := lookup(key)
		if !ok || strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// ValidateEnvironment 启动时环境校验，全部必需变量存在时返回true
func ValidateEnvironment(cfg *AppConfig, lookup LookupFunc) bool {
	return len(MissingEnvironmentKeys(cfg, lookup)) == 0
}
