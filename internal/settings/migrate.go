package settings

// Legacy resource plugin names recognized by the generation migration.
const (
	PluginTab             = "resource-tab"
	PluginBot             = "resource-bot"
	PluginAPI             = "resource-api"
	PluginBotService      = "resource-bot-service"
	PluginAppRegistration = "resource-app-registration"
	PluginAppManifest     = "resource-app-manifest"
	PluginIdentity        = "resource-identity"
	PluginSQL             = "resource-sql"
	PluginKeyVault        = "resource-key-vault"
)

// Scenario labels stamped onto migrated components.
const (
	ScenarioTab = "Tab"
	ScenarioBot = "Bot"
	ScenarioAPI = "Api"
)

// expansion describes how one recognized legacy plugin becomes graph nodes:
// either a single resource component, or a capability component plus the
// hosting component it runs on.
type expansion struct {
	capability *Component
	hosting    *Component
	single     *Component
}

// legacyExpansions is the fixed legacy-to-graph mapping table. Capability
// hostings listed here are the defaults the legacy shape can express;
// anything else is outside the representable subset and will not survive a
// downgrade.
var legacyExpansions = map[string]expansion{
	PluginTab: {
		capability: &Component{Name: "tab", Hosting: "static-storage", Build: true, Deploy: true, Scenario: ScenarioTab},
		hosting:    &Component{Name: "static-storage", Provision: true, Connections: []string{"tab"}, Scenario: ScenarioTab},
	},
	PluginBot: {
		capability: &Component{Name: "bot", Hosting: "web-app", Build: true, Deploy: true, Scenario: ScenarioBot},
		hosting:    &Component{Name: "web-app", Provision: true, Connections: []string{"bot"}, Scenario: ScenarioBot},
	},
	PluginAPI: {
		capability: &Component{Name: "api", Hosting: "function-app", Build: true, Deploy: true, Scenario: ScenarioAPI},
		hosting:    &Component{Name: "function-app", Provision: true, Connections: []string{"api"}, Scenario: ScenarioAPI},
	},
	PluginBotService:      {single: &Component{Name: "bot-service", Provision: true}},
	PluginAppRegistration: {single: &Component{Name: "app-registration", Provision: true}},
	PluginAppManifest:     {single: &Component{Name: "app-manifest", Provision: true}},
	PluginIdentity:        {single: &Component{Name: "managed-identity", Provision: true}},
	PluginSQL:             {single: &Component{Name: "sql-database", Provision: true}},
	PluginKeyVault:        {single: &Component{Name: "key-vault", Provision: true}},
}

// legacyNames inverts the expansion table for downgrades: capability and
// single component names back to their legacy plugin names.
var legacyNames = func() map[string]string {
	names := make(map[string]string, len(legacyExpansions))
	for plugin, exp := range legacyExpansions {
		if exp.capability != nil {
			names[exp.capability.Name] = plugin
		}
		if exp.single != nil {
			names[exp.single.Name] = plugin
		}
	}
	return names
}()

// capabilityScenarios maps capability component names to the coarse labels
// the legacy shape records.
var capabilityScenarios = map[string]string{
	"tab": ScenarioTab,
	"bot": ScenarioBot,
	"api": ScenarioAPI,
}

// Upgrade converts legacy settings to the component-graph generation. It is
// pure and total: settings already on the current generation are returned
// unchanged, recognized plugins expand through the fixed table, and
// unrecognized plugin names are carried through as opaque components so no
// data is lost silently.
func Upgrade(s *ProjectSettings) *ProjectSettings {
	if s.Generation() == GenerationComponents {
		return s
	}

	out := &ProjectSettings{
		AppName:             s.AppName,
		ProjectID:           s.ProjectID,
		Version:             ComponentsVersion,
		ProgrammingLanguage: s.ProgrammingLanguage,
	}

	seen := make(map[string]struct{})
	add := func(c *Component) {
		if c == nil {
			return
		}
		if _, dup := seen[c.Name]; dup {
			return
		}
		seen[c.Name] = struct{}{}
		out.Components = append(out.Components, cloneComponent(*c))
	}

	for _, pluginName := range s.Solution.ActiveResourcePlugins {
		exp, recognized := legacyExpansions[pluginName]
		if !recognized {
			add(&Component{Name: pluginName, Provision: true})
			continue
		}
		add(exp.capability)
		add(exp.hosting)
		add(exp.single)
	}

	return out
}

// Downgrade converts component-graph settings back to the legacy generation.
// It is lossy: build/deploy flags, scenarios, and connection details have no
// legacy encoding. Hosting components implied by a capability's default
// hosting collapse into the capability's plugin; every other component is
// emitted under its own name so Upgrade can carry it back.
func Downgrade(s *ProjectSettings) *ProjectSettings {
	if s.Generation() == GenerationLegacy {
		return s
	}

	implied := make(map[string]struct{})
	for _, c := range s.Components {
		plugin, ok := legacyNames[c.Name]
		if !ok {
			continue
		}
		exp := legacyExpansions[plugin]
		if exp.capability != nil && exp.capability.Name == c.Name && c.Hosting == exp.capability.Hosting {
			implied[c.Hosting] = struct{}{}
		}
	}

	var plugins []string
	var capabilities []string
	seenPlugins := make(map[string]struct{})
	seenCaps := make(map[string]struct{})

	for _, c := range s.Components {
		if _, skip := implied[c.Name]; skip {
			continue
		}

		name := c.Name
		if plugin, ok := legacyNames[c.Name]; ok {
			name = plugin
		}
		if _, dup := seenPlugins[name]; dup {
			continue
		}
		seenPlugins[name] = struct{}{}
		plugins = append(plugins, name)

		if label, ok := capabilityScenarios[c.Name]; ok {
			if _, dup := seenCaps[label]; !dup {
				seenCaps[label] = struct{}{}
				capabilities = append(capabilities, label)
			}
		}
	}

	return &ProjectSettings{
		AppName:             s.AppName,
		ProjectID:           s.ProjectID,
		Version:             LegacyVersion,
		ProgrammingLanguage: s.ProgrammingLanguage,
		Solution: &SolutionSettings{
			Name:                  "azure",
			HostType:              "Azure",
			Capabilities:          capabilities,
			ActiveResourcePlugins: plugins,
		},
	}
}

func cloneComponent(c Component) Component {
	if len(c.Connections) > 0 {
		c.Connections = append([]string(nil), c.Connections...)
	}
	return c
}
