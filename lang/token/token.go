package token

// A Token identifies the lexical class of a lexeme produced by the lexer.
type Token uint8

//nolint:revive
const (
	ILLEGAL Token = iota
	EOF
	NEWLINE // explicit newline or ';' token, significant as a statement separator

	// tokens with values
	IDENT
	INT
	FLOAT
	STRING
	CHAR

	// punctuation
	MINUS  // '-' on its own, not part of a numeric literal
	LPAREN // (
	RPAREN // )
	LBRACE // {
	RBRACE // }

	// stack keywords
	PUSH
	POP
	DUP
	COPY
	SWAP
	LIFT
	SINK
	SQUASH
	REMOVE
	RESERVE
	CLEAR
	SIZE
	FRAME

	// addressing keywords
	LOAD
	STORE
	ABS
	REL
	ROOT
	PARENT
	LOCAL
	ARG
	COMMIT
	COMMITINDEX
	REVERT

	// arithmetic & logic keywords
	INC
	DEC
	NEG
	ADD
	SUB
	MUL
	DIV
	ACCUMULATE
	NOT
	AND
	OR

	// comparison keywords
	LT
	GT
	LE
	GE
	EQ
	NE
	SAME
	IS

	// control keywords
	IF
	ELSE
	REPEAT
	INVOKE
	TAIL
	UNWIND
	CHECKPOINT
	HALT

	// function keywords
	FUNCTION
	WITHSTACK
	CURRENT
	SETCREATOR
	SAVEARGS
	DTOR

	// cast keyword
	CAST

	// type keywords
	TY_INT
	TY_FLOAT
	TY_STRING
	TY_CHAR
	TY_BOOL
	TY_OBJECT
	TY_PTR
	TY_UMAP
	TY_USET
	TY_ARRAY
	TY_PAIR
	TY_EXPRLIST

	// FFI primitive type keywords
	TY_VOID
	TY_UINT8
	TY_UINT16
	TY_UINT32
	TY_UINT64
	TY_SINT8
	TY_SINT16
	TY_SINT32
	TY_SINT64
	TY_UCHAR
	TY_USHORT
	TY_UINT
	TY_ULONG
	TY_SCHAR
	TY_SSHORT
	TY_SINT
	TY_SLONG
	TY_FLOAT_NATIVE
	TY_DOUBLE
	TY_PTR_NATIVE

	// collection keywords
	COLL
	GET
	PUT
	APPEND
	INSERT
	DEL
	CONTAINS
	REVERSE
	PROJECTION
	SPREAD
	RSPREAD
	FOREACH

	// numerics config
	PRECISION
	EPSILON

	// FFI
	FFI
	LIB
	SYM
	CALL
	STRUCT

	// literals
	TRUE
	FALSE
	NULL

	// misc
	DEFINE
	NOP
	MODULE
	DUMP
	ASSERT
	GC

	maxToken
)

// keywords maps the textual spelling of a keyword to its Token. Identifiers
// not present here lex as IDENT.
var keywords = map[string]Token{
	"push": PUSH, "pop": POP, "dup": DUP, "copy": COPY, "swap": SWAP,
	"lift": LIFT, "sink": SINK, "squash": SQUASH, "remove": REMOVE,
	"reserve": RESERVE, "clear": CLEAR, "size": SIZE, "frame": FRAME,

	"load": LOAD, "store": STORE, "abs": ABS, "rel": REL, "root": ROOT,
	"parent": PARENT, "local": LOCAL, "arg": ARG, "commit": COMMIT,
	"commitindex": COMMITINDEX, "revert": REVERT,

	"inc": INC, "dec": DEC, "neg": NEG, "add": ADD, "sub": SUB, "mul": MUL,
	"div": DIV, "accumulate": ACCUMULATE, "not": NOT, "and": AND, "or": OR,

	"lt": LT, "gt": GT, "le": LE, "ge": GE, "eq": EQ, "ne": NE,
	"same": SAME, "is": IS,

	"if": IF, "else": ELSE, "repeat": REPEAT, "invoke": INVOKE, "tail": TAIL,
	"unwind": UNWIND, "checkpoint": CHECKPOINT, "halt": HALT,

	"function": FUNCTION, "withstack": WITHSTACK, "current": CURRENT,
	"setcreator": SETCREATOR, "saveargs": SAVEARGS, "dtor": DTOR,

	"cast": CAST,

	"int": TY_INT, "float": TY_FLOAT, "string": TY_STRING, "char": TY_CHAR,
	"bool": TY_BOOL, "object": TY_OBJECT, "ptr": TY_PTR, "umap": TY_UMAP,
	"uset": TY_USET, "array": TY_ARRAY, "pair": TY_PAIR, "exprlist": TY_EXPRLIST,

	"_void": TY_VOID, "_uint8": TY_UINT8, "_uint16": TY_UINT16,
	"_uint32": TY_UINT32, "_uint64": TY_UINT64, "_sint8": TY_SINT8,
	"_sint16": TY_SINT16, "_sint32": TY_SINT32, "_sint64": TY_SINT64,
	"_uchar": TY_UCHAR, "_ushort": TY_USHORT, "_uint": TY_UINT,
	"_ulong": TY_ULONG, "_schar": TY_SCHAR, "_sshort": TY_SSHORT,
	"_sint": TY_SINT, "_slong": TY_SLONG, "_float": TY_FLOAT_NATIVE,
	"_double": TY_DOUBLE, "_ptr": TY_PTR_NATIVE,

	"coll": COLL, "get": GET, "put": PUT, "append": APPEND, "insert": INSERT,
	"del": DEL, "contains": CONTAINS, "reverse": REVERSE,
	"projection": PROJECTION, "spread": SPREAD, "rspread": RSPREAD,
	"foreach": FOREACH,

	"precision": PRECISION, "epsilon": EPSILON,

	"ffi": FFI, "lib": LIB, "sym": SYM, "call": CALL, "struct": STRUCT,

	"true": TRUE, "false": FALSE, "null": NULL,

	"define": DEFINE, "nop": NOP, "module": MODULE, "dump": DUMP,
	"assert": ASSERT, "gc": GC,
}

// Lookup returns the Token for the given identifier text, or IDENT if it is
// not a keyword.
func Lookup(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

var tokenNames = [...]string{
	ILLEGAL: "illegal", EOF: "eof", NEWLINE: "newline",
	IDENT: "ident", INT: "int", FLOAT: "float", STRING: "string", CHAR: "char",
	MINUS: "-", LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}",
}

func (t Token) String() string {
	for kw, tok := range keywords {
		if tok == t {
			return kw
		}
	}
	if int(t) < len(tokenNames) && tokenNames[t] != "" {
		return tokenNames[t]
	}
	return "unknown"
}
