/*
Package urlpattern matches request paths against the patterns used to map filters and servlets.

Three kinds of pattern are supported:

  - [Servlet]: an exact path (/login), a prefix (/api/*) or an extension (*.html).
  - [Regex]: a regular expression that must match the whole path.
  - [Expr]: a boolean expression over the variable path, for example
    `path startsWith "/admin/" && !(path endsWith ".css")`.

Paths are matched after they have been made relative to the application's context path
with [ContextRelativePath].
*/
package urlpattern
