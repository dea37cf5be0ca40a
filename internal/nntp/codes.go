package nntp

// Response codes used by the ingestion subset of NNTP (spec.md §6).
const (
	codePostingOK          = 240 // article received (POST)
	codeAuthAccepted       = 281 // AUTHINFO PASS accepted
	codeSendIt             = 335 // IHAVE: send it; end with <CR-LF>.<CR-LF>
	codeSendArticle        = 340 // POST: send article to be posted
	codePasswordRequired   = 381 // AUTHINFO USER: password required
	codeNotWanted          = 435 // IHAVE: article not wanted
	codeTransferFailed     = 436 // IHAVE: transfer failed, try again later
	codeTransferOK         = 235 // IHAVE: article transferred OK
	codeArticleRejected    = 437 // IHAVE: article rejected
	codePostingFailed      = 441 // POST: posting failed
	codePostingNotPermit   = 440 // POST: posting not permitted
	codeHelp               = 100
	codeCapabilitiesList   = 101
	codeServiceReady       = 200
	codeCommandNotRecog    = 500
	codeSyntaxError        = 501
	codeCommandUnavailable = 502
	codeAuthRequired       = 480
)
