package irc

// Numeric replies the session acts on
const (
	RPL_WELCOME       = 1
	RPL_YOURHOST      = 2
	RPL_CREATED       = 3
	RPL_MYINFO        = 4
	RPL_ISUPPORT      = 5
	RPL_UMODEIS       = 221
	RPL_LUSERCLIENT   = 251
	RPL_LUSEROP       = 252
	RPL_LUSERUNKNOWN  = 253
	RPL_LUSERCHANNELS = 254
	RPL_LUSERME       = 255
	RPL_AWAY          = 301
	RPL_USERHOST      = 302
	RPL_UNAWAY        = 305
	RPL_NOWAWAY       = 306
	RPL_WHOISUSER     = 311
	RPL_WHOISSERVER   = 312
	RPL_WHOISOPERATOR = 313
	RPL_ENDOFWHO      = 315
	RPL_WHOISIDLE     = 317
	RPL_ENDOFWHOIS    = 318
	RPL_WHOISCHANNELS = 319
	RPL_LISTSTART     = 321
	RPL_LIST          = 322
	RPL_LISTEND       = 323
	RPL_CHANNELMODEIS = 324
	RPL_CREATIONTIME  = 329
	RPL_NOTOPIC       = 331
	RPL_TOPIC         = 332
	RPL_TOPICWHOTIME  = 333
	RPL_INVITING      = 341
	RPL_VERSION       = 351
	RPL_WHOREPLY      = 352
	RPL_NAMREPLY      = 353
	RPL_ENDOFNAMES    = 366
	RPL_BANLIST       = 367
	RPL_ENDOFBANLIST  = 368
	RPL_INFO          = 371
	RPL_MOTD          = 372
	RPL_ENDOFINFO     = 374
	RPL_MOTDSTART     = 375
	RPL_ENDOFMOTD     = 376
	RPL_TIME          = 391

	ERR_NOSUCHNICK        = 401
	ERR_NOSUCHSERVER      = 402
	ERR_NOSUCHCHANNEL     = 403
	ERR_CANNOTSENDTOCHAN  = 404
	ERR_TOOMANYCHANNELS   = 405
	ERR_UNKNOWNCOMMAND    = 421
	ERR_NOMOTD            = 422
	ERR_NONICKNAMEGIVEN   = 431
	ERR_ERRONEUSNICKNAME  = 432
	ERR_NICKNAMEINUSE     = 433
	ERR_NICKCOLLISION     = 436
	ERR_USERNOTINCHANNEL  = 441
	ERR_NOTONCHANNEL      = 442
	ERR_USERONCHANNEL     = 443
	ERR_NOTREGISTERED     = 451
	ERR_NEEDMOREPARAMS    = 461
	ERR_ALREADYREGISTRED  = 462
	ERR_PASSWDMISMATCH    = 464
	ERR_YOUREBANNEDCREEP  = 465
	ERR_CHANNELISFULL     = 471
	ERR_UNKNOWNMODE       = 472
	ERR_INVITEONLYCHAN    = 473
	ERR_BANNEDFROMCHAN    = 474
	ERR_BADCHANNELKEY     = 475
	ERR_NOPRIVILEGES      = 481
	ERR_CHANOPRIVSNEEDED  = 482
	ERR_UMODEUNKNOWNFLAG  = 501
	ERR_USERSDONTMATCH    = 502
	errorReplyThreshold   = 400
)

// NumericInfo describes a reply code
type NumericInfo struct {
	Name    string
	Visible bool // shown to the user as system text
}

// numerics is built once and never written after package init
var numerics = map[int]NumericInfo{
	RPL_WELCOME:       {"RPL_WELCOME", true},
	RPL_YOURHOST:      {"RPL_YOURHOST", true},
	RPL_CREATED:       {"RPL_CREATED", true},
	RPL_MYINFO:        {"RPL_MYINFO", false},
	RPL_ISUPPORT:      {"RPL_ISUPPORT", false},
	RPL_UMODEIS:       {"RPL_UMODEIS", true},
	RPL_LUSERCLIENT:   {"RPL_LUSERCLIENT", true},
	RPL_LUSEROP:       {"RPL_LUSEROP", true},
	RPL_LUSERUNKNOWN:  {"RPL_LUSERUNKNOWN", true},
	RPL_LUSERCHANNELS: {"RPL_LUSERCHANNELS", true},
	RPL_LUSERME:       {"RPL_LUSERME", true},
	RPL_AWAY:          {"RPL_AWAY", true},
	RPL_USERHOST:      {"RPL_USERHOST", false},
	RPL_UNAWAY:        {"RPL_UNAWAY", true},
	RPL_NOWAWAY:       {"RPL_NOWAWAY", true},
	RPL_WHOISUSER:     {"RPL_WHOISUSER", true},
	RPL_WHOISSERVER:   {"RPL_WHOISSERVER", true},
	RPL_WHOISOPERATOR: {"RPL_WHOISOPERATOR", true},
	RPL_ENDOFWHO:      {"RPL_ENDOFWHO", false},
	RPL_WHOISIDLE:     {"RPL_WHOISIDLE", true},
	RPL_ENDOFWHOIS:    {"RPL_ENDOFWHOIS", false},
	RPL_WHOISCHANNELS: {"RPL_WHOISCHANNELS", true},
	RPL_LISTSTART:     {"RPL_LISTSTART", false},
	RPL_LIST:          {"RPL_LIST", true},
	RPL_LISTEND:       {"RPL_LISTEND", false},
	RPL_CHANNELMODEIS: {"RPL_CHANNELMODEIS", true},
	RPL_CREATIONTIME:  {"RPL_CREATIONTIME", false},
	RPL_NOTOPIC:       {"RPL_NOTOPIC", false},
	RPL_TOPIC:         {"RPL_TOPIC", false},
	RPL_TOPICWHOTIME:  {"RPL_TOPICWHOTIME", false},
	RPL_INVITING:      {"RPL_INVITING", true},
	RPL_VERSION:       {"RPL_VERSION", true},
	RPL_WHOREPLY:      {"RPL_WHOREPLY", true},
	RPL_NAMREPLY:      {"RPL_NAMREPLY", false},
	RPL_ENDOFNAMES:    {"RPL_ENDOFNAMES", false},
	RPL_BANLIST:       {"RPL_BANLIST", true},
	RPL_ENDOFBANLIST:  {"RPL_ENDOFBANLIST", false},
	RPL_INFO:          {"RPL_INFO", true},
	RPL_MOTD:          {"RPL_MOTD", true},
	RPL_ENDOFINFO:     {"RPL_ENDOFINFO", false},
	RPL_MOTDSTART:     {"RPL_MOTDSTART", true},
	RPL_ENDOFMOTD:     {"RPL_ENDOFMOTD", false},
	RPL_TIME:          {"RPL_TIME", true},

	ERR_NOSUCHNICK:       {"ERR_NOSUCHNICK", true},
	ERR_NOSUCHSERVER:     {"ERR_NOSUCHSERVER", true},
	ERR_NOSUCHCHANNEL:    {"ERR_NOSUCHCHANNEL", true},
	ERR_CANNOTSENDTOCHAN: {"ERR_CANNOTSENDTOCHAN", true},
	ERR_TOOMANYCHANNELS:  {"ERR_TOOMANYCHANNELS", true},
	ERR_UNKNOWNCOMMAND:   {"ERR_UNKNOWNCOMMAND", true},
	ERR_NOMOTD:           {"ERR_NOMOTD", false},
	ERR_NONICKNAMEGIVEN:  {"ERR_NONICKNAMEGIVEN", true},
	ERR_ERRONEUSNICKNAME: {"ERR_ERRONEUSNICKNAME", true},
	ERR_NICKNAMEINUSE:    {"ERR_NICKNAMEINUSE", true},
	ERR_NICKCOLLISION:    {"ERR_NICKCOLLISION", true},
	ERR_USERNOTINCHANNEL: {"ERR_USERNOTINCHANNEL", true},
	ERR_NOTONCHANNEL:     {"ERR_NOTONCHANNEL", true},
	ERR_USERONCHANNEL:    {"ERR_USERONCHANNEL", true},
	ERR_NOTREGISTERED:    {"ERR_NOTREGISTERED", true},
	ERR_NEEDMOREPARAMS:   {"ERR_NEEDMOREPARAMS", true},
	ERR_ALREADYREGISTRED: {"ERR_ALREADYREGISTRED", true},
	ERR_PASSWDMISMATCH:   {"ERR_PASSWDMISMATCH", true},
	ERR_YOUREBANNEDCREEP: {"ERR_YOUREBANNEDCREEP", true},
	ERR_CHANNELISFULL:    {"ERR_CHANNELISFULL", true},
	ERR_UNKNOWNMODE:      {"ERR_UNKNOWNMODE", true},
	ERR_INVITEONLYCHAN:   {"ERR_INVITEONLYCHAN", true},
	ERR_BANNEDFROMCHAN:   {"ERR_BANNEDFROMCHAN", true},
	ERR_BADCHANNELKEY:    {"ERR_BADCHANNELKEY", true},
	ERR_NOPRIVILEGES:     {"ERR_NOPRIVILEGES", true},
	ERR_CHANOPRIVSNEEDED: {"ERR_CHANOPRIVSNEEDED", true},
	ERR_UMODEUNKNOWNFLAG: {"ERR_UMODEUNKNOWNFLAG", true},
	ERR_USERSDONTMATCH:   {"ERR_USERSDONTMATCH", true},
}

// LookupNumeric returns the name and visibility of a reply code
func LookupNumeric(code int) (NumericInfo, bool) {
	info, ok := numerics[code]
	return info, ok
}

// IsErrorReply reports whether a reply code is in the error range
func IsErrorReply(code int) bool {
	return code >= errorReplyThreshold
}
