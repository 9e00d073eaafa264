package credentials

type ConsumableCode int

const (
	OK ConsumableCode = iota
	AssetDisabled
	ConnectivityFail
	CredentialNotInAllowList
	CredentialInDenyList
)

func (c ConsumableCode) String() string {
	switch c {
	case OK:
		return "OK"
	case AssetDisabled:
		return "ASSET_DISABLED"
	case ConnectivityFail:
		return "CONNECTIVITY_FAIL"
	case CredentialNotInAllowList:
		return "CREDENTIAL_NOT_IN_ALLOW_LIST"
	case CredentialInDenyList:
		return "CREDENTIAL_IN_DENY_LIST"
	default:
		return "UNKNOWN"
	}
}
