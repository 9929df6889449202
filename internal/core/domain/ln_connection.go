package domain

// LnConnectionOpts tells the lnd adapter how to reach the managed node.
// LnUrl is either an lndconnect:// URL carrying cert and macaroon, or a
// plain host:port in which case both are read from LnDatadir.
type LnConnectionOpts struct {
	LnUrl     string `json:"ln_url"`
	LnDatadir string `json:"ln_datadir"`
	Network   string `json:"network"`
}

func (o LnConnectionOpts) IsLndConnect() bool {
	return o.LnDatadir == ""
}
