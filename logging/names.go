package logging

const (
	NameKeySource         = "KeySource"
	NameKeySync           = "KeySync"
	NameSyncValidatorKeys = "SyncValidatorKeys"
	NameSyncWeb3Signer    = "SyncWeb3SignerKeys"
)
