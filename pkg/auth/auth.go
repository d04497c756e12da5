package auth

// DefaultProfile is the shared-config profile the SDK's default chain
// already reads. Naming it explicitly selects the default chain.
const DefaultProfile = "default"

// Mode identifies which credential source a client is built from
type Mode int

const (
	// ModeDefault uses the SDK's default credential chain (environment, instance role, ...)
	ModeDefault Mode = iota
	// ModeProfile uses a named profile from the shared credentials file
	ModeProfile
	// ModeStaticKeys uses an explicit access/secret key pair
	ModeStaticKeys
)

func (m Mode) String() string {
	switch m {
	case ModeProfile:
		return "profile"
	case ModeStaticKeys:
		return "static_keys"
	default:
		return "default"
	}
}

// KeyPair is an explicit access/secret key pair
type KeyPair struct {
	AccessKey string
	SecretKey string
}

// Complete reports whether both halves of the pair are present
func (k KeyPair) Complete() bool {
	return k.AccessKey != "" && k.SecretKey != ""
}

// Credentials holds every credential source a caller may configure.
// Only one of them is used, see ResolveAuthMode.
type Credentials struct {
	Profile string
	Keys    KeyPair
}

// Mode returns the auth mode selected for these credentials
func (c Credentials) Mode() Mode {
	return ResolveAuthMode(c.Profile, c.Keys)
}

// ResolveAuthMode picks the credential source.
// A complete key pair always wins, then a named profile, then the default chain.
// A half-filled key pair is ignored, and so is the "default" profile, so hosts
// without a shared config file still get environment or instance-role credentials.
func ResolveAuthMode(profile string, keys KeyPair) Mode {
	if keys.Complete() {
		return ModeStaticKeys
	}
	if profile != "" && profile != DefaultProfile {
		return ModeProfile
	}
	return ModeDefault
}
