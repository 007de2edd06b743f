// Package canon turns raw automation steps into their canonical form.
//
// The canonical form is the equality and similarity key for the whole
// resolution pipeline: two steps are "the same template" iff their canonical
// forms are equal. A step is canonicalized by taking its first line, removing
// the leading dialect keyword (Дано, Когда, Тогда, И, Также, Затем, Но),
// lower-casing, dropping a trailing colon and replacing literals with fixed
// placeholders:
//
//	Когда я нажимаю кнопку "ОК"          -> я нажимаю кнопку "{}"
//	И я ввожу 'текст' в поле $Имя$        -> я ввожу "{}" в поле ${}$
//	Тогда таблица содержит 5 строк:       -> таблица содержит # строк
//
// Canonicalize is a pure, total and idempotent function and is safe for
// concurrent use.
package canon
