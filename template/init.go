package template

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Rana718/pbinit/internal/config"
)

type ProjectTemplate struct {
	URL    string
	Emails []string
}

func NewProjectTemplate(url string, emails []string) *ProjectTemplate {
	if url == "" {
		url = config.DefaultURL
	}
	return &ProjectTemplate{URL: strings.TrimRight(url, "/"), Emails: emails}
}

// GetPbinitConfig renders pbinit.config.json. Credentials are left to .env.
func (pt *ProjectTemplate) GetPbinitConfig() string {
	emails := pt.Emails
	if emails == nil {
		emails = []string{}
	}
	cfg := map[string]any{
		"url": pt.URL,
		"god_mode": map[string]any{
			"emails":        emails,
			"collection":    config.DefaultCollection,
			"temp_password": config.DefaultTempPassword,
			"bcrypt_cost":   config.DefaultBcryptCost,
		},
		"schema": map[string]any{
			"order": config.OrderDependency,
		},
		"http": map[string]any{
			"timeout": "0s",
			"retries": 0,
		},
		"log": map[string]any{
			"level": "info",
			"json":  false,
		},
	}
	data, _ := json.MarshalIndent(cfg, "", "  ")
	return string(data) + "\n"
}

func (pt *ProjectTemplate) GetEnvTemplate() string {
	return fmt.Sprintf(`%s_URL=%s
%s_ADMIN_EMAIL=
%s_ADMIN_PASSWORD=
`, config.EnvPrefix, pt.URL, config.EnvPrefix, config.EnvPrefix)
}

// AppendEnv writes content to path, or appends it when the file exists and
// does not define the admin variables yet. It reports whether path changed.
func AppendEnv(path, content string) (bool, error) {
	existing, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, os.WriteFile(path, []byte(content), 0600)
		}
		return false, err
	}

	existingStr := string(existing)
	if strings.Contains(existingStr, config.EnvPrefix+"_ADMIN_EMAIL") {
		return false, nil
	}

	if len(existingStr) > 0 && !strings.HasSuffix(existingStr, "\n") {
		existingStr += "\n"
	}
	existingStr += "\n# Added by pbinit\n" + content

	return true, os.WriteFile(path, []byte(existingStr), 0600)
}
