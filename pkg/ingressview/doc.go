/*
Package ingressview implements the ServiceView abstraction (spec.md
§4.3) and the proxy-config renderer ensureNginxService depends on
(§4.6). A View holds one service's parsed nginx-ingress.* labels plus the
VersionedStores for its key/cert families; Render turns a set of Views
into a content-addressed nginx config (invariant I4).
*/
package ingressview
