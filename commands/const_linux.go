package commands

const (
	_etc = "/usr/local/etc/endorser"
	_var = "/usr/local/var/endorser"

	DEFAULT_WORKDIR     = _var
	DEFAULT_CREDENTIALS = _etc + "/.google/credentials.json"
)
