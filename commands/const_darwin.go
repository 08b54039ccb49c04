package commands

const (
	_etc = "/usr/local/etc/com.github.verdant"
	_var = "/usr/local/var/com.github.verdant"

	DEFAULT_WORKDIR     = _var
	DEFAULT_CREDENTIALS = _etc + "/endorser/.google/credentials.json"
)
