package sdkcfg

// Development backend credentials baked into internal builds via
// -ldflags "-X mlbridge/internal/sdkcfg.devBaseURL=..." and friends.
// Release builds leave them empty and the getters report absence.
var (
	devBaseURL    string
	devAPIKey     string
	devBuildToken string
	devSentryDSN  string
)

// devValue maps empty (not baked in) to (nil, false).
func devValue(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	return s, true
}

func DevBaseURL() (string, bool)    { return devValue(devBaseURL) }
func DevAPIKey() (string, bool)     { return devValue(devAPIKey) }
func DevBuildToken() (string, bool) { return devValue(devBuildToken) }
func DevSentryDSN() (string, bool)  { return devValue(devSentryDSN) }
