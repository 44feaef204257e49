package diagnostics

import "fmt"

// Kind enumerates every diagnostic the compiler can produce.
type Kind int

const (
	// Lexical
	KindUnterminatedComment Kind = iota
	KindUnrecognizedSequence
	KindUnterminatedString
	KindMalformedNumber

	// Syntax
	KindUnexpectedToken
	KindInvalidEnumeratorName
	KindInvalidEnvironment

	// Semantic
	KindAlreadyDeclared
	KindUndeclaredIdentifier
	KindConditionNotBoolean
	KindIncompatibleTypes
	KindIncompatibleLambdaType
	KindMultipleParametersPerArgument
	KindSingleIdentifierPerDefinition
	KindUndefinedType
	KindLoopInterruptionNotAllowed
	KindLoopWithoutBreak
	KindRedundantInfiniteLoop
	KindUndefinedField
	KindArgumentCountMismatch
	KindNotCallable
	KindNotIndexable
	KindInvalidOperand
	KindNarrowingConversion
	KindInvalidRecursiveType
	KindConstantRequired
	KindDuplicateCapture
	KindReturnOutsideFunction
	KindReturnTypeMismatch
	KindNotAssignable
	KindTypeUsedAsValue

	// Driver
	KindInternalCompilerError
	KindLanguageVersion
)

type kindInfo struct {
	code     string
	name     string
	level    DiagnosticLevel
	category DiagnosticCategory
}

var kindTable = map[Kind]kindInfo{
	KindUnterminatedComment:  {"L001", "unterminated-comment", DiagnosticError, CategorySyntax},
	KindUnrecognizedSequence: {"L002", "unrecognized-sequence", DiagnosticError, CategorySyntax},
	KindUnterminatedString:   {"L003", "unterminated-string", DiagnosticError, CategorySyntax},
	KindMalformedNumber:      {"L004", "malformed-number", DiagnosticError, CategorySyntax},

	KindUnexpectedToken:       {"P001", "unexpected-token", DiagnosticError, CategoryParsing},
	KindInvalidEnumeratorName: {"P002", "invalid-enumerator-name", DiagnosticError, CategoryParsing},
	KindInvalidEnvironment:    {"P003", "invalid-environment", DiagnosticError, CategoryInternal},

	KindAlreadyDeclared:               {"S001", "identifier-already-declared", DiagnosticError, CategoryRedefinition},
	KindUndeclaredIdentifier:          {"S002", "undeclared-identifier", DiagnosticError, CategoryUndefinedVariable},
	KindConditionNotBoolean:           {"S003", "condition-must-be-boolean", DiagnosticError, CategoryTypeError},
	KindIncompatibleTypes:             {"S004", "incompatible-types", DiagnosticError, CategoryTypeError},
	KindIncompatibleLambdaType:        {"S005", "incompatible-lambda-type", DiagnosticError, CategoryTypeError},
	KindMultipleParametersPerArgument: {"S006", "multiple-parameters-per-argument", DiagnosticError, CategoryParsing},
	KindSingleIdentifierPerDefinition: {"S007", "single-identifier-per-function-definition", DiagnosticError, CategoryParsing},
	KindUndefinedType:                 {"S008", "undefined-type", DiagnosticError, CategoryUndefinedType},
	KindLoopInterruptionNotAllowed:    {"S009", "loop-interruption-not-allowed", DiagnosticError, CategoryControlFlow},
	KindLoopWithoutBreak:              {"S010", "loop-without-break", DiagnosticWarning, CategoryInfiniteLoop},
	KindRedundantInfiniteLoop:         {"S011", "redundant-infinite-loop", DiagnosticWarning, CategoryInfiniteLoop},
	KindUndefinedField:                {"S012", "undefined-field", DiagnosticError, CategoryUndefinedVariable},
	KindArgumentCountMismatch:         {"S013", "argument-count-mismatch", DiagnosticError, CategoryTypeError},
	KindNotCallable:                   {"S014", "not-callable", DiagnosticError, CategoryTypeError},
	KindNotIndexable:                  {"S015", "not-indexable", DiagnosticError, CategoryTypeError},
	KindInvalidOperand:                {"S016", "invalid-operand", DiagnosticError, CategoryTypeError},
	KindNarrowingConversion:           {"S017", "narrowing-conversion", DiagnosticWarning, CategoryTypeError},
	KindInvalidRecursiveType:          {"S018", "invalid-recursive-type", DiagnosticError, CategoryTypeError},
	KindConstantRequired:              {"S019", "constant-required", DiagnosticError, CategoryTypeError},
	KindDuplicateCapture:              {"S020", "duplicate-capture", DiagnosticError, CategoryRedefinition},
	KindReturnOutsideFunction:         {"S021", "return-outside-function", DiagnosticError, CategoryControlFlow},
	KindReturnTypeMismatch:            {"S022", "return-type-mismatch", DiagnosticError, CategoryTypeError},
	KindNotAssignable:                 {"S023", "not-assignable", DiagnosticError, CategoryTypeError},
	KindTypeUsedAsValue:               {"S024", "type-used-as-value", DiagnosticError, CategoryTypeError},

	KindInternalCompilerError: {"D001", "internal-compiler-error", DiagnosticError, CategoryInternal},
	KindLanguageVersion:       {"D002", "language-version", DiagnosticError, CategoryInternal},
}

// Code returns the stable code of the kind.
func (k Kind) Code() string {
	if info, ok := kindTable[k]; ok {
		return info.code
	}
	return fmt.Sprintf("X%03d", int(k))
}

// String returns the kebab-case name of the kind.
func (k Kind) String() string {
	if info, ok := kindTable[k]; ok {
		return info.name
	}
	return "unknown"
}

// DefaultLevel is the severity a kind is reported with.
func (k Kind) DefaultLevel() DiagnosticLevel {
	if info, ok := kindTable[k]; ok {
		return info.level
	}
	return DiagnosticError
}

// Category returns the category of the kind.
func (k Kind) Category() DiagnosticCategory {
	if info, ok := kindTable[k]; ok {
		return info.category
	}
	return CategoryInternal
}
